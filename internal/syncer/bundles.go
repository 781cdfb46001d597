package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/versemate/offlinestore/internal/entities"
	"github.com/versemate/offlinestore/internal/remote"
)

// BundleStatus is the aggregate download state of a language bundle or one of its members.
type BundleStatus string

const (
	StatusNotDownloaded       BundleStatus = "not_downloaded"
	StatusPartiallyDownloaded BundleStatus = "partially_downloaded"
	StatusDownloaded          BundleStatus = "downloaded"
	StatusUpdateAvailable     BundleStatus = "update_available"
)

// BundleResource is one manifest entry inside a bundle.
type BundleResource struct {
	Kind      entities.ResourceKind `json:"kind"`
	Key       string                `json:"key"`
	Name      string                `json:"name"`
	UpdatedAt string                `json:"updated_at"`
	SizeBytes int64                 `json:"size_bytes"`
	Status    BundleStatus          `json:"status"`
}

// LanguageBundle groups every resource of one normalized language. It is derived
// from the manifest and local metadata on demand and never stored.
type LanguageBundle struct {
	Language  string           `json:"language"`
	Status    BundleStatus     `json:"status"`
	SizeBytes int64            `json:"size_bytes"`
	Resources []BundleResource `json:"resources"`
}

// LanguageBundles groups the manifest by normalized language, sorted by language.
// Bible versions without a language are left out.
func (o *Orchestrator) LanguageBundles(ctx context.Context, manifest *remote.Manifest) ([]LanguageBundle, error) {
	installed, err := o.metadata.List(ctx)
	if err != nil {
		return nil, err
	}
	local := make(map[string]string, len(installed))
	for _, row := range installed {
		local[row.ResourceKey] = row.LastUpdatedAt
	}

	byLang := make(map[string]*LanguageBundle)
	var order []string
	for _, e := range entries(manifest) {
		lang := NormalizeLanguage(e.Language)
		if lang == "" {
			continue
		}
		b, ok := byLang[lang]
		if !ok {
			b = &LanguageBundle{Language: lang}
			byLang[lang] = b
			order = append(order, lang)
		}

		status := StatusNotDownloaded
		if localTS, ok := local[entities.MetadataKey(e.Kind, e.Key)]; ok {
			status = StatusDownloaded
			if isNewer(e.UpdatedAt, localTS) {
				status = StatusUpdateAvailable
			}
		}
		b.Resources = append(b.Resources, BundleResource{
			Kind:      e.Kind,
			Key:       e.Key,
			Name:      e.Name,
			UpdatedAt: e.UpdatedAt,
			SizeBytes: e.SizeBytes,
			Status:    status,
		})
		b.SizeBytes += e.SizeBytes
	}

	sort.Strings(order)
	bundles := make([]LanguageBundle, 0, len(order))
	for _, lang := range order {
		b := byLang[lang]
		b.Status = foldStatus(b.Resources)
		bundles = append(bundles, *b)
	}
	return bundles, nil
}

// foldStatus: any update wins, then all downloaded, then some, then none.
func foldStatus(resources []BundleResource) BundleStatus {
	downloaded := 0
	for _, r := range resources {
		switch r.Status {
		case StatusUpdateAvailable:
			return StatusUpdateAvailable
		case StatusDownloaded:
			downloaded++
		}
	}
	switch {
	case len(resources) > 0 && downloaded == len(resources):
		return StatusDownloaded
	case downloaded > 0:
		return StatusPartiallyDownloaded
	default:
		return StatusNotDownloaded
	}
}

// DownloadBundle downloads every member of a language bundle that is missing or stale.
func (o *Orchestrator) DownloadBundle(ctx context.Context, language string, onProgress ProgressFunc) error {
	bundle, err := o.bundle(ctx, language)
	if err != nil {
		return err
	}
	var errs []error
	for _, r := range bundle.Resources {
		if r.Status == StatusDownloaded {
			continue
		}
		if err := o.download(ctx, r.Kind, r.Key, r.UpdatedAt, onProgress); err != nil {
			log.Printf("[SYNC] Failed to download %s: %v", entities.MetadataKey(r.Kind, r.Key), err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DeleteBundle removes every installed member of a language bundle.
func (o *Orchestrator) DeleteBundle(ctx context.Context, language string) error {
	bundle, err := o.bundle(ctx, language)
	if err != nil {
		return err
	}
	for _, r := range bundle.Resources {
		if r.Status == StatusNotDownloaded {
			continue
		}
		if err := o.DeleteResource(ctx, r.Kind, r.Key); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) bundle(ctx context.Context, language string) (*LanguageBundle, error) {
	manifest, err := o.remote.FetchManifest(ctx)
	if err != nil {
		return nil, err
	}
	bundles, err := o.LanguageBundles(ctx, manifest)
	if err != nil {
		return nil, err
	}
	lang := NormalizeLanguage(language)
	for i := range bundles {
		if bundles[i].Language == lang {
			return &bundles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: language %q", ErrNotOffered, language)
}
