package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnaterm/internal/fna"
)

type fakeStore struct {
	mu      sync.Mutex
	clients []fna.Client
	headers map[string]fna.Header
	saveErr error
	saved   []fna.Header
	// loadErr fails the next GetOrCreateHeader call.
	loadErr error
}

func newFakeStore(clients ...fna.Client) *fakeStore {
	return &fakeStore{clients: clients, headers: map[string]fna.Header{}}
}

func (s *fakeStore) ListClients(context.Context) ([]fna.Client, error) {
	return s.clients, nil
}

func (s *fakeStore) GetOrCreateHeader(_ context.Context, clientID string) (fna.Header, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadErr; err != nil {
		s.loadErr = nil
		return fna.Header{}, false, err
	}
	if h, ok := s.headers[clientID]; ok {
		return h, false, nil
	}
	h := fna.NewHeader("h-"+clientID, clientID, time.Now())
	s.headers[clientID] = h
	return h, true, nil
}

func (s *fakeStore) UpdateHeader(_ context.Context, h fna.Header) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.headers[h.ClientID] = h
	s.saved = append(s.saved, h)
	return nil
}

var (
	ana = fna.Client{ID: "a", FirstName: "Ana", LastName: "Lee", Phone: "555-1111"}
	bo  = fna.Client{ID: "b", FirstName: "Bo", LastName: "Lee", Phone: "555-2222"}
)

func newTestModel(t *testing.T, store *fakeStore) *model {
	t.Helper()
	m := newModel(fna.NewSelector(store), fna.NewController(store), nil, time.Second)
	feed(m, m.loadClientsCmd()())
	require.False(t, m.loadingClients)
	return m
}

// feed delivers msg, expanding batches, without running follow-up commands.
func feed(m *model, msg tea.Msg) {
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, cmd := range batch {
			if cmd != nil {
				feed(m, cmd())
			}
		}
		return
	}
	m.Update(msg)
}

// press delivers a key and the messages its command produces.
func press(m *model, key tea.KeyMsg) {
	_, cmd := m.Update(key)
	if cmd != nil {
		feed(m, cmd())
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTabBarCycles(t *testing.T) {
	tb := NewTabBar()
	assert.Equal(t, fna.TabAbout, tb.Active())

	for range fna.Tabs {
		tb.CycleNext()
	}
	assert.Equal(t, fna.TabAbout, tb.Active())

	tb.CyclePrev()
	assert.Equal(t, fna.TabIncome, tb.Active())

	tb.SetActive(fna.TabLiabilities)
	assert.Equal(t, fna.TabLiabilities, tb.Active())
}

func TestTabBarUpdateEmitsSwitch(t *testing.T) {
	tb := NewTabBar()
	tb, cmd := tb.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	require.NotNil(t, cmd)
	assert.Equal(t, TabSwitchMsg{Tab: fna.TabGoals}, cmd())

	tb, cmd = tb.Update(tea.KeyMsg{Type: tea.KeyF5})
	require.NotNil(t, cmd)
	assert.Equal(t, fna.TabInsurance, tb.Active())

	_, cmd = tb.Update(runes("x"))
	assert.Nil(t, cmd)
}

func TestPickerEmptyStates(t *testing.T) {
	m := newTestModel(t, newFakeStore())
	assert.Contains(t, m.View(), "No clients in database yet.")

	m = newTestModel(t, newFakeStore(ana, bo))
	press(m, runes("zzz"))
	assert.Contains(t, m.View(), "No matching clients found.")
}

func TestPickerFilters(t *testing.T) {
	m := newTestModel(t, newFakeStore(ana, bo))
	press(m, runes("555-22"))
	require.Len(t, m.results.Clients, 1)
	assert.Equal(t, "Bo", m.results.Clients[0].FirstName)
}

func TestDraftSurvivesTabSwitch(t *testing.T) {
	m := newTestModel(t, newFakeStore(ana))
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, stateForm, m.state)
	require.False(t, m.loadingHeader)

	spec, ok := m.editor.focused()
	require.True(t, ok)
	require.Equal(t, fna.FieldSpouseName, spec.Field)

	press(m, runes("Jordan"))
	assert.Equal(t, "Jordan", m.ctrl.Text(fna.FieldSpouseName))

	press(m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, fna.TabGoals, m.tabs.Active())
	assert.NotContains(t, m.View(), "Jordan")

	press(m, tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, fna.TabAbout, m.tabs.Active())
	assert.Contains(t, m.View(), "Jordan")
}

func TestTriStateKeys(t *testing.T) {
	m := newTestModel(t, newFakeStore(ana))
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m.tabs.SetActive(fna.TabAssets)
	feed(m, TabSwitchMsg{Tab: fna.TabAssets})

	view := m.View()
	assert.Contains(t, view, "( ) Yes")
	assert.Contains(t, view, "( ) No")

	press(m, runes("y"))
	assert.Equal(t, fna.Yes, m.ctrl.Flag(fna.FieldHasOld401k))
	assert.Contains(t, m.View(), "(•) Yes")

	press(m, runes("n"))
	assert.Equal(t, fna.No, m.ctrl.Flag(fna.FieldHasOld401k))

	press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, fna.Unknown, m.ctrl.Flag(fna.FieldHasOld401k))
}

func TestSaveFeedback(t *testing.T) {
	store := newFakeStore(ana)
	m := newTestModel(t, store)
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	press(m, runes("Jordan"))

	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.False(t, m.saving)
	assert.Equal(t, "✅ Saved successfully!", m.infoMessage)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "Jordan", store.saved[0].Household.SpouseName)

	store.saveErr = errors.New("boom")
	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, "Error saving: boom", m.errMessage)
	assert.Empty(t, m.infoMessage)
	assert.Equal(t, "Jordan", m.ctrl.Text(fna.FieldSpouseName))
}

func TestFlashExpires(t *testing.T) {
	m := newTestModel(t, newFakeStore(ana))
	m.handleHeaderSaved(headerSavedMsg{})
	first := m.flashSeq
	m.handleHeaderSaved(headerSavedMsg{})

	feed(m, flashExpiredMsg{seq: first})
	assert.NotEmpty(t, m.infoMessage)
	feed(m, flashExpiredMsg{seq: m.flashSeq})
	assert.Empty(t, m.infoMessage)
}

func TestStaleHeaderResponseDropped(t *testing.T) {
	m := newTestModel(t, newFakeStore(ana, bo))

	selA, ok := m.beginSelection(ana)
	require.True(t, ok)
	selB, ok := m.beginSelection(bo)
	require.True(t, ok)
	m.pushState(stateForm)
	m.loadingHeader = true

	feed(m, m.loadHeaderCmd(selB)())
	feed(m, m.loadHeaderCmd(selA)())
	feed(m, headerLoadedMsg{sel: selA, err: errors.New("late failure")})

	assert.Empty(t, m.errMessage)
	h, ok := m.ctrl.Header()
	require.True(t, ok)
	assert.Equal(t, "b", h.ClientID)
}

func TestReselectKeepsHeader(t *testing.T) {
	store := newFakeStore(ana)
	m := newTestModel(t, store)
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	press(m, runes("Jordan"))

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, statePicker, m.state)
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, stateForm, m.state)
	assert.Equal(t, "Jordan", m.ctrl.Text(fna.FieldSpouseName))
	assert.Len(t, store.headers, 1)
}

func TestReselectRetriesFailedLoad(t *testing.T) {
	store := newFakeStore(ana)
	store.loadErr = errors.New("connection reset")
	m := newTestModel(t, store)

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, stateForm, m.state)
	assert.Contains(t, m.errMessage, "connection reset")
	_, loaded := m.ctrl.Header()
	require.False(t, loaded)

	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Contains(t, m.errMessage, "Error saving:")
	assert.Empty(t, m.infoMessage)
	assert.Empty(t, store.saved)

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.errMessage)
	h, loaded := m.ctrl.Header()
	require.True(t, loaded)
	assert.Equal(t, "a", h.ClientID)

	press(m, runes("Jordan"))
	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, "✅ Saved successfully!", m.infoMessage)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "Jordan", store.saved[0].Household.SpouseName)
}

func TestLongStoredTextNotTruncated(t *testing.T) {
	store := newFakeStore(ana)
	h := fna.NewHeader("h-a", "a", time.Now())
	h.Household.SpouseName = strings.Repeat("x", 200)
	h.Goals.Text = strings.Repeat("saving for college, ", 150) + "then retire"
	store.headers["a"] = h
	m := newTestModel(t, store)

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	press(m, tea.KeyMsg{Type: tea.KeyEnd})
	press(m, runes("y"))

	press(m, tea.KeyMsg{Type: tea.KeyPgDown})
	require.Equal(t, fna.TabGoals, m.tabs.Active())
	press(m, tea.KeyMsg{Type: tea.KeyEnd})

	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Len(t, store.saved, 1)
	assert.Equal(t, strings.Repeat("x", 200)+"y", store.saved[0].Household.SpouseName)
	assert.Equal(t, h.Goals.Text, store.saved[0].Goals.Text)
}
