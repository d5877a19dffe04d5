package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/peteklapka/wagipedia/config"
	"github.com/peteklapka/wagipedia/store"
)

const (
	testRoot     = "Longmorn_Setting/Characters"
	testTemplate = "Longmorn_Setting/Characters/PC_Template"

	templateContent = `<figure class="table"><table><tbody>
<tr><td>WAG_CARD</td><td>v1</td></tr>
<tr><td>Character Name</td><td data-cc="name">CHARACTER NAME</td></tr>
<tr><td>Player Name</td><td></td></tr>
</tbody></table></figure>
<h2>About CHARACTER NAME</h2>`
)

func testConfig() *config.GalleryConfig {
	return &config.GalleryConfig{
		Root:          testRoot,
		Template:      testTemplate,
		Locale:        "en",
		ListLimit:     2000,
		Concurrency:   8,
		FailurePolicy: config.FailurePolicyAbort,
		Editor:        "ckeditor",
		Published:     true,
		Tags:          []string{"pc"},
	}
}

func newTestSync(t *testing.T, st store.Store, cfg *config.GalleryConfig, options ...Option) *Sync {
	t.Helper()
	s, err := New(st, cfg, zaptest.NewLogger(t), options...)
	require.NoError(t, err)
	return s
}

func card(name, player, level string) string {
	return fmt.Sprintf(`<table><tr><td>WAG_CARD</td><td>v1</td></tr>
<tr><td>Character Name</td><td>%s</td></tr>
<tr><td>Player Name</td><td>%s</td></tr>
<tr><td>Level</td><td>%s</td></tr></table>`, name, player, level)
}

// recordingStore remembers create requests.
type recordingStore struct {
	*store.Memory
	mu       sync.Mutex
	requests []store.CreateRequest
}

func (r *recordingStore) Create(ctx context.Context, req store.CreateRequest) (store.CreateResult, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	return r.Memory.Create(ctx, req)
}

func TestListUnder(t *testing.T) {
	mem := store.NewMemory()
	mem.Put("en", testRoot, "Characters", "")
	mem.Put("en", testTemplate, "Template", "")
	zara := mem.Put("en", testRoot+"/zara", "Zara", "")
	deep := mem.Put("en", "/"+testRoot+"/npc/bob/", "Bob", "")
	mem.Put("en", testRoot+"_Archive/old", "Old", "")
	mem.Put("en", "Other/x", "X", "")

	refs, err := newTestSync(t, mem, testConfig()).ListUnder(context.Background(), "/"+testRoot+"/")

	require.NoError(t, err)
	ids := make([]int, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []int{zara.ID, deep.ID}, ids)
}

func TestListUnder_Unavailable(t *testing.T) {
	mem := store.NewMemory()
	mem.ListErr = fmt.Errorf("%w: connection refused", store.ErrUnavailable)

	_, err := newTestSync(t, mem, testConfig()).ListUnder(context.Background(), testRoot)

	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestFindByPath(t *testing.T) {
	mem := store.NewMemory()
	tpl := mem.Put("en", testTemplate, "Template", templateContent)
	mem.Put("en", testTemplate+"_Old", "Old template", "")
	s := newTestSync(t, mem, testConfig())

	ref, err := s.FindByPath(context.Background(), testTemplate)
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, ref.ID)

	_, err = s.FindByPath(context.Background(), testRoot+"/missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRefresh_Sorted(t *testing.T) {
	mem := store.NewMemory()
	mem.Put("en", testRoot, "Characters", "<p>index</p>")
	mem.Put("en", testTemplate, "Template", templateContent)
	mem.Put("en", testRoot+"/zara", "A page", card("Zara", "Pete", "3"))
	mem.Put("en", testRoot+"/anna_lower", "B page", card("anna", "Kim", "1"))
	mem.Put("en", testRoot+"/anna_upper", "C page", card("Anna", "Lee", ""))
	mem.Put("en", testRoot+"/emile", "Émile", `<p data-cc="player">Jo</p>`)
	mem.Put("en", testRoot+"/blank", "Yannick", `<p>no card</p>`)

	entries, err := newTestSync(t, mem, testConfig()).Refresh(context.Background())

	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Meta.Name)
		assert.NoError(t, e.Err)
	}
	assert.Equal(t, []string{"anna", "Anna", "Émile", "Yannick", "Zara"}, names)

	assert.Equal(t, "card-table", entries[0].Strategy)
	assert.Equal(t, "Kim", entries[0].Meta.Player)
	require.NotNil(t, entries[0].Meta.Level)
	assert.Equal(t, 1, *entries[0].Meta.Level)
	assert.Nil(t, entries[1].Meta.Level)
	assert.Equal(t, "legacy-data-cc", entries[2].Strategy)
	assert.Equal(t, "Jo", entries[2].Meta.Player)
	assert.Equal(t, "", entries[3].Strategy)
	assert.Equal(t, "—", entries[3].Meta.Player)
}

func TestRefresh_Concurrency(t *testing.T) {
	mem := store.NewMemory()
	for i := range 20 {
		mem.Put("en", fmt.Sprintf("%s/hero_%d", testRoot, i), fmt.Sprintf("Hero %d", i), card(fmt.Sprintf("Hero %02d", i), "P", "1"))
	}
	mem.FetchHook = func(ctx context.Context, _ int) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
			return nil
		}
	}

	entries, err := newTestSync(t, mem, testConfig()).Refresh(context.Background())

	require.NoError(t, err)
	assert.Len(t, entries, 20)
	assert.Equal(t, 20, mem.Fetches())
	assert.LessOrEqual(t, mem.MaxInflight(), 8)
	assert.Equal(t, "Hero 00", entries[0].Meta.Name)
	assert.Equal(t, "Hero 19", entries[19].Meta.Name)
}

func TestRefresh_FailurePolicy(t *testing.T) {
	boom := fmt.Errorf("%w: timeout", store.ErrUnavailable)

	setup := func() (*store.Memory, store.EntryRef) {
		mem := store.NewMemory()
		mem.Put("en", testRoot+"/zara", "Zara", card("Zara", "Pete", "3"))
		bad := mem.Put("en", testRoot+"/broken", "Broken Page", card("Broken", "X", "1"))
		mem.Put("en", testRoot+"/anna", "Anna", card("Anna", "Kim", "2"))
		mem.FetchHook = func(_ context.Context, id int) error {
			if id == bad.ID {
				return boom
			}
			return nil
		}
		return mem, bad
	}

	t.Run("abort", func(t *testing.T) {
		mem, _ := setup()
		entries, err := newTestSync(t, mem, testConfig()).Refresh(context.Background())

		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrUnavailable)
		assert.Contains(t, err.Error(), testRoot+"/broken")
		assert.Nil(t, entries)
	})

	t.Run("isolate", func(t *testing.T) {
		mem, bad := setup()
		cfg := testConfig()
		cfg.FailurePolicy = config.FailurePolicyIsolate

		entries, err := newTestSync(t, mem, cfg).Refresh(context.Background())

		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "Anna", entries[0].Meta.Name)
		assert.Equal(t, "Broken Page", entries[1].Meta.Name)
		assert.Equal(t, bad.ID, entries[1].Ref.ID)
		assert.ErrorIs(t, entries[1].Err, store.ErrUnavailable)
		assert.Equal(t, "Zara", entries[2].Meta.Name)
		assert.NoError(t, entries[2].Err)
	})
}

func TestRefresh_Empty(t *testing.T) {
	mem := store.NewMemory()
	mem.Put("en", testTemplate, "Template", templateContent)

	entries, err := newTestSync(t, mem, testConfig()).Refresh(context.Background())

	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 0, mem.Fetches())
}

func TestCreateFromTemplate(t *testing.T) {
	rec := &recordingStore{Memory: store.NewMemory()}
	rec.Put("en", testTemplate, "Template", templateContent)

	ref, err := newTestSync(t, rec, testConfig()).CreateFromTemplate(context.Background(), "  Test Hero ")

	require.NoError(t, err)
	assert.Equal(t, testRoot+"/test_hero", ref.Path)
	assert.Equal(t, "Test Hero", ref.Title)
	assert.NotZero(t, ref.ID)

	require.Len(t, rec.requests, 1)
	req := rec.requests[0]
	assert.Equal(t, "Player Character: Test Hero", req.Description)
	assert.Equal(t, "ckeditor", req.Editor)
	assert.Equal(t, "en", req.Locale)
	assert.True(t, req.IsPublished)
	assert.False(t, req.IsPrivate)
	assert.Equal(t, []string{"pc"}, req.Tags)
	assert.Contains(t, req.Content, `<td data-cc="name">Test Hero</td>`)
	assert.Contains(t, req.Content, `<h2>About Test Hero</h2>`)
	assert.NotContains(t, req.Content, NamePlaceholder)

	content, ok := rec.Content(ref.ID)
	require.True(t, ok)
	assert.Equal(t, req.Content, content)
}

func TestCreateFromTemplate_Escaped(t *testing.T) {
	rec := &recordingStore{Memory: store.NewMemory()}
	rec.Put("en", testTemplate, "Template", templateContent)
	cfg := testConfig()
	cfg.DescriptionTemplate = "{{ .Name | lower }} ({{ .Locale }})"

	ref, err := newTestSync(t, rec, cfg, WithLocale("de")).CreateFromTemplate(context.Background(), "<Evil>")

	require.NoError(t, err)
	assert.Equal(t, testRoot+"/evil", ref.Path)
	require.Len(t, rec.requests, 1)
	assert.Contains(t, rec.requests[0].Content, `<td data-cc="name">&lt;Evil&gt;</td>`)
	assert.NotContains(t, rec.requests[0].Content, "<Evil>")
	assert.Equal(t, "<evil> (de)", rec.requests[0].Description)
	assert.Equal(t, "de", rec.requests[0].Locale)
}

func TestCreateFromTemplate_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("empty name", func(t *testing.T) {
		_, err := newTestSync(t, store.NewMemory(), testConfig()).CreateFromTemplate(ctx, "   ")
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("template missing", func(t *testing.T) {
		mem := store.NewMemory()
		mem.Put("en", testRoot+"/zara", "Zara", "")
		_, err := newTestSync(t, mem, testConfig()).CreateFromTemplate(ctx, "Test Hero")
		assert.ErrorIs(t, err, ErrTemplateNotFound)
		assert.NotErrorIs(t, err, ErrTemplateEmpty)
		assert.Contains(t, err.Error(), testTemplate)
	})

	t.Run("template empty", func(t *testing.T) {
		mem := store.NewMemory()
		mem.Put("en", testTemplate, "Template", " \n ")
		_, err := newTestSync(t, mem, testConfig()).CreateFromTemplate(ctx, "Test Hero")
		assert.ErrorIs(t, err, ErrTemplateEmpty)
		assert.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("store unavailable", func(t *testing.T) {
		mem := store.NewMemory()
		mem.ListErr = store.ErrUnavailable
		_, err := newTestSync(t, mem, testConfig()).CreateFromTemplate(ctx, "Test Hero")
		assert.ErrorIs(t, err, store.ErrUnavailable)
		assert.NotErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("duplicate path", func(t *testing.T) {
		mem := store.NewMemory()
		mem.Put("en", testTemplate, "Template", templateContent)
		mem.Put("en", testRoot+"/test_hero", "Test Hero", "")
		_, err := newTestSync(t, mem, testConfig()).CreateFromTemplate(ctx, "Test Hero")

		var re *store.RejectedError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "create", re.Op)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("rejected with message", func(t *testing.T) {
		mem := store.NewMemory()
		mem.Put("en", testTemplate, "Template", templateContent)
		mem.RejectCreate = "Path is reserved."
		_, err := newTestSync(t, mem, testConfig()).CreateFromTemplate(ctx, "Test Hero")
		assert.EqualError(t, err, "Path is reserved.")
	})
}

func TestDeleteEntry(t *testing.T) {
	mem := store.NewMemory()
	ref := mem.Put("en", testRoot+"/zara", "Zara", "")
	s := newTestSync(t, mem, testConfig())

	require.NoError(t, s.DeleteEntry(context.Background(), ref.ID))
	_, ok := mem.Content(ref.ID)
	assert.False(t, ok)

	err := s.DeleteEntry(context.Background(), ref.ID)
	var re *store.RejectedError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "delete", re.Op)
	assert.EqualError(t, err, "This page does not exist.")

	mem.DeleteErr = store.ErrUnavailable
	assert.ErrorIs(t, s.DeleteEntry(context.Background(), ref.ID), store.ErrUnavailable)
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "/en/Longmorn_Setting/Characters/zara", ViewURL("en", "/Longmorn_Setting/Characters/zara"))
	assert.Equal(t, "/e/en/Longmorn_Setting/Characters/zara", EditURL("en", "Longmorn_Setting/Characters/zara/"))
}

func TestCardsAndDump(t *testing.T) {
	mem := store.NewMemory()
	mem.Put("", testRoot+"/zara", "Zara", card("Zara", "Pete", "3"))
	mem.Put("fr", testRoot+"/anna", "Anna", card("Anna", "Kim", "2"))
	s := newTestSync(t, mem, testConfig(), WithLocale("de"))

	entries, err := s.Refresh(context.Background())
	require.NoError(t, err)

	cards := s.Cards(entries)
	require.Len(t, cards, 2)
	assert.Equal(t, "/fr/"+testRoot+"/anna", cards[0].ViewURL)
	assert.Equal(t, "/e/de/"+testRoot+"/zara", cards[1].EditURL)
	assert.Equal(t, "Zara", cards[1].Meta.Name)

	dump := Dump(entries)
	assert.True(t, strings.HasPrefix(dump, "gallery: 2 entries\n"))
	assert.Contains(t, dump, `name: "Anna"`)
	assert.Contains(t, dump, `level: "3"`)
}

func TestNew_InvalidDescription(t *testing.T) {
	cfg := testConfig()
	cfg.DescriptionTemplate = "{{ .Name"
	_, err := New(store.NewMemory(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestRefresh_Cancelled(t *testing.T) {
	mem := store.NewMemory()
	mem.Put("en", testRoot+"/zara", "Zara", card("Zara", "Pete", "3"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestSync(t, mem, testConfig()).Refresh(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
