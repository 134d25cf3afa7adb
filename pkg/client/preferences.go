package client

import (
	"fmt"
	"strconv"
	"sync"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	DefaultSection = "dashboard"
)

// ThemeApplier 把主题同步到界面层的全局样式标记
type ThemeApplier func(Theme)

// Preferences 界面偏好：当前导航栏目、侧边栏折叠、主题
type Preferences struct {
	store   Storage
	applier ThemeApplier

	mu               sync.RWMutex
	activeSection    string
	sidebarCollapsed bool
	theme            Theme
}

// NewPreferences 从存储中恢复，无效值回退到默认值
func NewPreferences(store Storage, applier ThemeApplier) *Preferences {
	p := &Preferences{
		store:         store,
		applier:       applier,
		activeSection: DefaultSection,
		theme:         ThemeLight,
	}
	if v, ok := store.Get(KeyTheme); ok && validTheme(Theme(v)) {
		p.theme = Theme(v)
	}
	if v, ok := store.Get(KeySidebarCollapsed); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			p.sidebarCollapsed = b
		}
	}
	if v, ok := store.Get(KeyActiveSection); ok && v != "" {
		p.activeSection = v
	}
	p.apply(p.theme)
	return p
}

func (p *Preferences) ActiveSection() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.activeSection
}

func (p *Preferences) SetActiveSection(section string) error {
	if section == "" {
		section = DefaultSection
	}
	if err := p.store.Set(KeyActiveSection, section); err != nil {
		return err
	}
	p.mu.Lock()
	p.activeSection = section
	p.mu.Unlock()
	return nil
}

func (p *Preferences) SidebarCollapsed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sidebarCollapsed
}

func (p *Preferences) SetSidebarCollapsed(collapsed bool) error {
	if err := p.store.Set(KeySidebarCollapsed, strconv.FormatBool(collapsed)); err != nil {
		return err
	}
	p.mu.Lock()
	p.sidebarCollapsed = collapsed
	p.mu.Unlock()
	return nil
}

func (p *Preferences) Theme() Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.theme
}

func (p *Preferences) SetTheme(t Theme) error {
	if !validTheme(t) {
		return fmt.Errorf("unknown theme %q", t)
	}
	if err := p.store.Set(KeyTheme, string(t)); err != nil {
		return err
	}
	p.mu.Lock()
	p.theme = t
	p.mu.Unlock()
	p.apply(t)
	return nil
}

func (p *Preferences) ToggleTheme() (Theme, error) {
	next := ThemeDark
	if p.Theme() == ThemeDark {
		next = ThemeLight
	}
	if err := p.SetTheme(next); err != nil {
		return p.Theme(), err
	}
	return next, nil
}

func (p *Preferences) apply(t Theme) {
	if p.applier != nil {
		p.applier(t)
	}
}

func validTheme(t Theme) bool {
	return t == ThemeLight || t == ThemeDark
}
