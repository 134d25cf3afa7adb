package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferences_Defaults(t *testing.T) {
	var applied []Theme
	p := NewPreferences(NewMemoryStorage(), func(th Theme) { applied = append(applied, th) })

	assert.Equal(t, DefaultSection, p.ActiveSection())
	assert.False(t, p.SidebarCollapsed())
	assert.Equal(t, ThemeLight, p.Theme())
	assert.Equal(t, []Theme{ThemeLight}, applied)
}

func TestPreferences_ToggleThemeTwice(t *testing.T) {
	store := NewMemoryStorage()
	var applied []Theme
	p := NewPreferences(store, func(th Theme) { applied = append(applied, th) })

	th, err := p.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, th)
	v, _ := store.Get(KeyTheme)
	assert.Equal(t, "dark", v)

	th, err = p.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, th)
	v, _ = store.Get(KeyTheme)
	assert.Equal(t, "light", v)

	assert.Equal(t, []Theme{ThemeLight, ThemeDark, ThemeLight}, applied)
}

func TestPreferences_RestoreFromStorage(t *testing.T) {
	store := NewMemoryStorage()
	require.NoError(t, store.Set(KeyTheme, "dark"))
	require.NoError(t, store.Set(KeySidebarCollapsed, "true"))
	require.NoError(t, store.Set(KeyActiveSection, "documents"))

	p := NewPreferences(store, nil)
	assert.Equal(t, ThemeDark, p.Theme())
	assert.True(t, p.SidebarCollapsed())
	assert.Equal(t, "documents", p.ActiveSection())
}

func TestPreferences_InvalidValues(t *testing.T) {
	store := NewMemoryStorage()
	require.NoError(t, store.Set(KeyTheme, "purple"))
	require.NoError(t, store.Set(KeySidebarCollapsed, "maybe"))

	p := NewPreferences(store, nil)
	assert.Equal(t, ThemeLight, p.Theme())
	assert.False(t, p.SidebarCollapsed())

	assert.Error(t, p.SetTheme("purple"))
	assert.Equal(t, ThemeLight, p.Theme())

	require.NoError(t, p.SetActiveSection(""))
	assert.Equal(t, DefaultSection, p.ActiveSection())
}
