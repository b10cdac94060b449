package wiki

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves canned titles and pages and records calls.
type fakeAPI struct {
	random      []string
	randomErr   error
	search      map[string][]string
	searchErr   error
	categories  map[string][]string
	pages       map[string]*Page
	pageErr     map[string]error
	randomCalls int
	pageCalls   []string
	onPage      func()
}

func (f *fakeAPI) RandomTitle(context.Context) (string, error) {
	if f.randomErr != nil {
		return "", f.randomErr
	}
	if len(f.random) == 0 {
		return "", errors.New("no random titles left")
	}
	t := f.random[f.randomCalls%len(f.random)]
	f.randomCalls++
	return t, nil
}

func (f *fakeAPI) Search(_ context.Context, q string, _ int) ([]string, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.search[q], nil
}

func (f *fakeAPI) CategoryMembers(_ context.Context, c string, _ int) ([]string, error) {
	return f.categories[c], nil
}

func (f *fakeAPI) Page(_ context.Context, title string) (*Page, error) {
	f.pageCalls = append(f.pageCalls, title)
	if f.onPage != nil {
		f.onPage()
	}
	if err := f.pageErr[title]; err != nil {
		return nil, err
	}
	if p, ok := f.pages[title]; ok {
		return p, nil
	}
	return &Page{Title: title}, nil
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func goodPage(title string) *Page {
	return &Page{Exists: true, Title: title, URL: "https://example.org/" + title, Summary: words(60), SectionCount: 4}
}

func newDeterministicSource(api API) *Source {
	s := NewSource(api)
	s.intn = func(int) int { return 0 }
	s.shuffle = func(int, func(i, j int)) {}
	return s
}

func TestRejectReason(t *testing.T) {
	tests := []struct {
		name string
		page *Page
		want string
	}{
		{"missing", &Page{Title: "X"}, "missing"},
		{"may refer to", &Page{Exists: true, Title: "Mercury", Summary: "Mercury May Refer To: a planet " + words(60), SectionCount: 3}, "disambiguation"},
		{"title suffix", &Page{Exists: true, Title: "Mercury (Disambiguation)", Summary: words(60), SectionCount: 3}, "disambiguation"},
		{"stub", &Page{Exists: true, Title: "Tiny", Summary: words(20), SectionCount: 1}, "stub"},
		{"short but sectioned", &Page{Exists: true, Title: "Short", Summary: words(20), SectionCount: 3}, "summary too short"},
		{"good", goodPage("Otter"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RejectReason(tt.page, 50))
		})
	}
}

func TestIsStubThreshold(t *testing.T) {
	// minWords/2 = 25 is above the floor of 10.
	assert.True(t, IsStub(1, 24, 50))
	assert.False(t, IsStub(1, 25, 50))
	assert.False(t, IsStub(2, 5, 50))
	// Floor of 10 applies for small minimums.
	assert.True(t, IsStub(0, 9, 4))
	assert.False(t, IsStub(0, 10, 4))
}

func TestFindRandomFirstGoodPage(t *testing.T) {
	api := &fakeAPI{
		random: []string{"Stubby", "Otter"},
		pages: map[string]*Page{
			"Stubby": {Exists: true, Title: "Stubby", Summary: words(5), SectionCount: 0},
			"Otter":  goodPage("Otter"),
		},
	}

	doc, err := newDeterministicSource(api).Find(context.Background(), Request{Strategy: "random", MinWords: 50})
	require.NoError(t, err)
	assert.Equal(t, "Otter", doc.Title)
	assert.Equal(t, []string{"Stubby", "Otter"}, api.pageCalls)
}

func TestFindExhaustsAttempts(t *testing.T) {
	api := &fakeAPI{random: []string{"A", "B", "C", "D", "E", "F", "G"}}

	_, err := newDeterministicSource(api).Find(context.Background(), Request{Strategy: "random", MinWords: 50})
	assert.ErrorIs(t, err, ErrNoDocument)
	assert.Len(t, api.pageCalls, MaxAttempts)
}

func TestFindDuplicateTitleConsumesAttempt(t *testing.T) {
	// Same title every time: only one page fetch, then the remaining
	// attempts are spent on duplicates.
	api := &fakeAPI{random: []string{"Same"}}

	_, err := newDeterministicSource(api).Find(context.Background(), Request{Strategy: "random", MinWords: 50})
	assert.ErrorIs(t, err, ErrNoDocument)
	assert.Equal(t, []string{"Same"}, api.pageCalls)
	assert.Equal(t, MaxAttempts, api.randomCalls)
}

func TestFindSelectionFailureConsumesAttempt(t *testing.T) {
	api := &fakeAPI{randomErr: errors.New("timeout")}

	_, err := newDeterministicSource(api).Find(context.Background(), Request{Strategy: "random", MinWords: 50})
	assert.ErrorIs(t, err, ErrNoDocument)
	assert.Empty(t, api.pageCalls)
}

func TestFindPageErrorMovesOn(t *testing.T) {
	api := &fakeAPI{
		random:  []string{"Broken", "Otter"},
		pages:   map[string]*Page{"Otter": goodPage("Otter")},
		pageErr: map[string]error{"Broken": errors.New("503")},
	}

	doc, err := newDeterministicSource(api).Find(context.Background(), Request{Strategy: "random", MinWords: 50})
	require.NoError(t, err)
	assert.Equal(t, "Otter", doc.Title)
}

func TestFindSearchStrategy(t *testing.T) {
	api := &fakeAPI{
		search: map[string][]string{"History": {"Rome"}},
		pages:  map[string]*Page{"Rome": goodPage("Rome")},
	}

	doc, err := newDeterministicSource(api).Find(context.Background(), Request{
		Strategy: "search", Keywords: []string{"History"}, MinWords: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "Rome", doc.Title)
	assert.Zero(t, api.randomCalls)
}

func TestFindSearchFallsBackToRandom(t *testing.T) {
	api := &fakeAPI{
		searchErr: errors.New("search down"),
		random:    []string{"Otter"},
		pages:     map[string]*Page{"Otter": goodPage("Otter")},
	}

	doc, err := newDeterministicSource(api).Find(context.Background(), Request{
		Strategy: "search", Keywords: []string{"History"}, MinWords: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "Otter", doc.Title)
	assert.Equal(t, 1, api.randomCalls)
}

func TestFindCategoryEmptyFallsBackToRandom(t *testing.T) {
	api := &fakeAPI{
		categories: map[string][]string{},
		random:     []string{"Otter"},
		pages:      map[string]*Page{"Otter": goodPage("Otter")},
	}

	doc, err := newDeterministicSource(api).Find(context.Background(), Request{
		Strategy: "category", Categories: []string{"Mammals"}, MinWords: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "Otter", doc.Title)
}

func TestFindThemeUsesPoolWithoutFallback(t *testing.T) {
	api := &fakeAPI{
		search: map[string][]string{"jazz": {"Bad1", "Bad2", "Miles Davis"}},
		pages:  map[string]*Page{"Miles Davis": goodPage("Miles Davis")},
		random: []string{"Otter"},
	}

	doc, err := newDeterministicSource(api).Find(context.Background(), Request{Theme: "jazz", MinWords: 50})
	require.NoError(t, err)
	assert.Equal(t, "Miles Davis", doc.Title)
	assert.Zero(t, api.randomCalls)
}

func TestFindThemeExhausted(t *testing.T) {
	api := &fakeAPI{
		search: map[string][]string{"jazz": {"Bad1", "Bad2"}},
		random: []string{"Otter"},
		pages:  map[string]*Page{"Otter": goodPage("Otter")},
	}

	_, err := newDeterministicSource(api).Find(context.Background(), Request{Theme: "jazz", MinWords: 50})
	assert.ErrorIs(t, err, ErrNoContentForTheme)
	assert.Equal(t, []string{"Bad1", "Bad2"}, api.pageCalls)
	assert.Zero(t, api.randomCalls)
}

func TestFindThemeSearchError(t *testing.T) {
	api := &fakeAPI{searchErr: errors.New("down")}

	_, err := newDeterministicSource(api).Find(context.Background(), Request{Theme: "jazz", MinWords: 50})
	assert.ErrorIs(t, err, ErrNoContentForTheme)
}

func TestFindStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	api := &fakeAPI{random: []string{"A", "B", "C"}}
	api.onPage = cancel

	_, err := newDeterministicSource(api).Find(ctx, Request{Strategy: "random", MinWords: 50})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, api.pageCalls, 1)
}
