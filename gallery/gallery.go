// Package gallery keeps character gallery in sync with the page store: lists
// character entries, extracts their identity cards and creates or deletes
// entries.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/peteklapka/wagipedia/config"
	"github.com/peteklapka/wagipedia/fanout"
	"github.com/peteklapka/wagipedia/sheet"
	"github.com/peteklapka/wagipedia/store"
)

// Entry is one gallery character: where it lives and what its identity card
// says. Err is only set under isolate failure policy for entries which could
// not be fetched, Meta has defaults then.
type Entry struct {
	Ref      store.EntryRef
	Meta     sheet.CardMeta
	Strategy string
	Err      error
}

// Sync performs gallery operations against the store.
type Sync struct {
	store  store.Store
	cfg    *config.GalleryConfig
	locale string
	tag    language.Tag
	desc   *template.Template
	rpt    *config.Report
	log    *zap.Logger
}

// Option customizes Sync.
type Option func(*Sync)

// WithLocale overrides configured locale for new entries and name ordering.
func WithLocale(locale string) Option {
	return func(s *Sync) {
		if locale = strings.TrimSpace(locale); locale != "" {
			s.locale = locale
		}
	}
}

// WithReport makes refresh save fetched documents and gallery dump into the
// debug report.
func WithReport(rpt *config.Report) Option {
	return func(s *Sync) {
		s.rpt = rpt
	}
}

// New creates gallery sync. Fails only when description template is invalid.
func New(st store.Store, cfg *config.GalleryConfig, log *zap.Logger, options ...Option) (*Sync, error) {
	s := &Sync{
		store:  st,
		cfg:    cfg,
		locale: cfg.Locale,
		log:    log.Named("gallery"),
	}
	for _, opt := range options {
		opt(s)
	}
	tag, err := language.Parse(s.locale)
	if err != nil {
		s.log.Warn("Unable to parse locale, using default collation", zap.String("locale", s.locale), zap.Error(err))
		tag = language.Und
	}
	s.tag = tag

	if s.desc, err = parseDescription(cfg.DescriptionTemplate); err != nil {
		return nil, err
	}
	return s, nil
}

// Locale returns locale used for new entries.
func (s *Sync) Locale() string {
	return s.locale
}

// Root returns gallery root path without surrounding slashes.
func (s *Sync) Root() string {
	return trimPath(s.cfg.Root)
}

func trimPath(p string) string {
	return strings.Trim(strings.TrimSpace(p), "/")
}

// ListUnder returns entries whose path is strictly below prefix, excluding
// gallery index page and the template. Listing order (by title) is kept.
func (s *Sync) ListUnder(ctx context.Context, prefix string) ([]store.EntryRef, error) {
	refs, err := s.store.List(ctx, s.cfg.ListLimit, store.OrderByTitle)
	if err != nil {
		return nil, fmt.Errorf("unable to list entries: %w", err)
	}

	prefix = trimPath(prefix)
	if prefix != "" {
		prefix += "/"
	}
	root, tmpl := s.Root(), trimPath(s.cfg.Template)

	var res []store.EntryRef
	for _, ref := range refs {
		p := trimPath(ref.Path)
		if !strings.HasPrefix(p, prefix) || p == root || p == tmpl {
			continue
		}
		res = append(res, ref)
	}
	return res, nil
}

// FindByPath looks up entry with exactly this path.
func (s *Sync) FindByPath(ctx context.Context, path string) (store.EntryRef, error) {
	refs, err := s.store.List(ctx, s.cfg.ListLimit, store.OrderByPath)
	if err != nil {
		return store.EntryRef{}, fmt.Errorf("unable to list entries: %w", err)
	}
	path = trimPath(path)
	for _, ref := range refs {
		if trimPath(ref.Path) == path {
			return ref, nil
		}
	}
	return store.EntryRef{}, fmt.Errorf("%w: %s", ErrEntryNotFound, path)
}

func (s *Sync) collator() *collate.Collator {
	return collate.New(s.tag, collate.Loose)
}

// Refresh lists gallery entries, fetches every one of them with bounded
// concurrency and extracts identity cards. Result is ordered by character
// name using locale aware comparison, ties keep listing order.
//
// Under abort failure policy the first failed fetch fails the whole refresh.
// Under isolate policy failed entries are returned with Err set and the
// combined error is only logged.
func (s *Sync) Refresh(ctx context.Context) ([]Entry, error) {
	start := time.Now()
	pass := uuid.Must(uuid.NewV7()).String()
	log := s.log.With(zap.String("refresh", pass))

	refs, err := s.ListUnder(ctx, s.cfg.Root)
	if err != nil {
		return nil, err
	}

	coll := s.collator()
	slices.SortStableFunc(refs, func(a, b store.EntryRef) int {
		return coll.CompareString(a.Title, b.Title)
	})

	fetch := func(ctx context.Context, _ int, ref store.EntryRef) (Entry, error) {
		return s.fetchEntry(ctx, ref)
	}

	var entries []Entry
	switch s.cfg.FailurePolicy {
	case config.FailurePolicyIsolate:
		var errs []error
		entries, errs = fanout.MapIsolated(ctx, refs, s.cfg.Concurrency, fetch)
		var failed error
		for i, e := range errs {
			if e == nil {
				continue
			}
			entries[i] = Entry{Ref: refs[i], Meta: sheet.DefaultMeta(refs[i].Title), Err: e}
			failed = multierr.Append(failed, e)
		}
		if failed != nil {
			log.Warn("Some entries could not be read", zap.Int("failed", len(multierr.Errors(failed))), zap.Error(failed))
		}
	default:
		if entries, err = fanout.Map(ctx, refs, s.cfg.Concurrency, fetch); err != nil {
			return nil, fmt.Errorf("unable to refresh gallery: %w", err)
		}
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return coll.CompareString(a.Meta.Name, b.Meta.Name)
	})

	if s.rpt != nil {
		s.rpt.StoreData("gallery/dump.txt", []byte(Dump(entries)))
	}
	log.Debug("Gallery refreshed", zap.Int("entries", len(entries)), zap.Duration("elapsed", time.Since(start)))
	return entries, nil
}

func (s *Sync) fetchEntry(ctx context.Context, ref store.EntryRef) (Entry, error) {
	page, err := s.store.Fetch(ctx, ref.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %q: %w", ref.Path, err)
	}
	if s.rpt != nil {
		s.rpt.StoreData(reportName(ref), []byte(page.Content))
	}
	doc, err := sheet.ParseString(page.Content)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %q: %w", ref.Path, err)
	}
	meta, strategy := sheet.ExtractIdentityWith(doc, ref.Title)
	return Entry{Ref: ref, Meta: meta, Strategy: strategy}, nil
}

// CreateFromTemplate creates new character entry from the template page. The
// name is trimmed and must not be empty.
func (s *Sync) CreateFromTemplate(ctx context.Context, name string) (store.EntryRef, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.EntryRef{}, ErrEmptyName
	}

	tplPath := trimPath(s.cfg.Template)
	tpl, err := s.FindByPath(ctx, tplPath)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return store.EntryRef{}, fmt.Errorf("%w at path: %s", ErrTemplateNotFound, tplPath)
		}
		return store.EntryRef{}, err
	}
	page, err := s.store.Fetch(ctx, tpl.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.EntryRef{}, fmt.Errorf("%w at path: %s", ErrTemplateNotFound, tplPath)
		}
		return store.EntryRef{}, fmt.Errorf("unable to fetch template: %w", err)
	}
	if strings.TrimSpace(page.Content) == "" {
		return store.EntryRef{}, fmt.Errorf("%w at path: %s", ErrTemplateEmpty, tplPath)
	}

	slug := Slugify(name)
	req := store.CreateRequest{
		Content:     Fill(page.Content, name),
		Editor:      s.cfg.Editor,
		IsPublished: s.cfg.Published,
		IsPrivate:   s.cfg.Private,
		Locale:      s.locale,
		Path:        s.Root() + "/" + slug,
		Tags:        slices.Clone(s.cfg.Tags),
		Title:       name,
	}
	if req.Description, err = expandDescription(s.desc, descriptionValues{Name: name, Slug: slug, Path: req.Path, Locale: s.locale}); err != nil {
		return store.EntryRef{}, err
	}

	res, err := s.store.Create(ctx, req)
	if err != nil {
		return store.EntryRef{}, fmt.Errorf("unable to create entry: %w", err)
	}
	if err := store.Rejected("create", res.Response); err != nil {
		return store.EntryRef{}, err
	}

	ref := store.EntryRef{Path: req.Path, Title: name, Locale: s.locale}
	if res.Page != nil {
		ref = *res.Page
	}
	s.log.Info("Character created", zap.String("name", name), zap.String("path", ref.Path), zap.Int("id", ref.ID))
	return ref, nil
}

// DeleteEntry removes entry by id.
func (s *Sync) DeleteEntry(ctx context.Context, id int) error {
	resp, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("unable to delete entry %d: %w", id, err)
	}
	if err := store.Rejected("delete", resp); err != nil {
		return err
	}
	s.log.Info("Character deleted", zap.Int("id", id))
	return nil
}

// ViewURL returns site relative URL of the entry page.
func ViewURL(locale, path string) string {
	return "/" + locale + "/" + trimPath(path)
}

// EditURL returns site relative URL of the entry editor.
func EditURL(locale, path string) string {
	return "/e/" + locale + "/" + trimPath(path)
}
