package service

import (
	"context"
	"errors"
	"fmt"

	"mightstone-backend/internal/hydrator"
	"mightstone-backend/internal/scrapers/edhrec"
	"mightstone-backend/internal/tree"
)

type ThemeRequest struct {
	Tag string
	// Identity narrows the theme to one color identity, "" means every color.
	Identity string
	HydrateOptions
}

type ThemePage struct {
	edhrec.NormalizedPage
	Tag       string           `json:"tag"`
	Commander string           `json:"commander,omitempty"`
	Identity  *edhrec.Identity `json:"identity,omitempty"`
	SourceURL string           `json:"source_url"`
	Hydration *hydrator.Report `json:"hydration,omitempty"`
}

func tagSlug(tag string) (string, error) {
	slug := edhrec.Slugify(tag)
	if slug == "" {
		return "", edhrec.NewValidationError("TAG_REQUIRED", "Tag name is required")
	}
	return slug, nil
}

func (s Service) themePage(ctx context.Context, root tree.Node, url string, req HydrateOptions) ThemePage {
	page := ThemePage{
		NormalizedPage: s.normalizer.Normalize(root),
		SourceURL:      url,
	}
	if req.Hydrate {
		hydrated, report := s.hydrator.HydratePage(ctx, page.NormalizedPage, s.hydrateOptions(req))
		page.NormalizedPage = hydrated
		page.Hydration = &report
		s.reportHydration(url, report)
	}
	return page
}

// Theme reads a tag page, optionally scoped to a color identity.
func (s Service) Theme(ctx context.Context, req ThemeRequest) (ThemePage, error) {
	slug, err := tagSlug(req.Tag)
	if err != nil {
		return ThemePage{}, err
	}

	path := "/tags/" + slug
	var identity *edhrec.Identity
	if req.Identity != "" {
		parsed, err := edhrec.CanonicalizeIdentity(req.Identity)
		if err != nil {
			return ThemePage{}, err
		}
		identity = &parsed
		path += "/" + parsed.Slug
	}

	root, _, url, err := s.fetchPageData(ctx, "/pages"+path+".json", path)
	if err != nil {
		return ThemePage{}, err
	}
	page := s.themePage(ctx, root, url, req.HydrateOptions)
	page.Tag = slug
	page.Identity = identity
	return page, nil
}

type CommanderThemeRequest struct {
	Commander string
	Tag       string
	HydrateOptions
}

// CommanderTheme reads the listing of one commander narrowed to a tag.
func (s Service) CommanderTheme(ctx context.Context, req CommanderThemeRequest) (ThemePage, error) {
	name, err := requireName(req.Commander, "NAME_REQUIRED", "Commander name is required")
	if err != nil {
		return ThemePage{}, err
	}
	slug, err := tagSlug(req.Tag)
	if err != nil {
		return ThemePage{}, err
	}

	page, err := s.fetchCommander(ctx, name, "/"+slug)
	if err != nil {
		var e *edhrec.Error
		if errors.As(err, &e) && e.Kind == edhrec.KindNotFound {
			e.Message = fmt.Sprintf("Tag '%s' was not found for commander '%s'", slug, name)
		}
		return ThemePage{}, err
	}
	theme := s.themePage(ctx, page.root, page.url, req.HydrateOptions)
	theme.Tag = slug
	theme.Commander = name
	return theme, nil
}

// TagIndex lists every theme linked from the EDHREC tag directory.
func (s Service) TagIndex(ctx context.Context) ([]edhrec.TagIndexEntry, error) {
	page, err := s.edhrec.FetchPage(ctx, "/tags")
	if err != nil {
		s.tel.ReportWarning(report_tag_index_fetch, err)
		return nil, err
	}
	doc, err := page.Document()
	if err != nil {
		return nil, err
	}
	return s.tags.ParseTagIndex(ctx, doc), nil
}
