package client

import (
	"context"
	"sync"
)

// Session 当前登录状态：用户、令牌、加载标记
type Session struct {
	client *Client
	store  Storage

	mu      sync.RWMutex
	user    *User
	token   string
	loading bool
}

func NewSession(c *Client, store Storage) *Session {
	return &Session{client: c, store: store}
}

// Init 读取已保存的令牌并通过 /auth/me 校验，任何失败都静默清空
func (s *Session) Init(ctx context.Context) {
	token, ok := s.store.Get(KeyToken)
	if !ok || token == "" {
		s.clear()
		return
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	s.client.SetToken(token)
	user, err := s.client.Me(ctx)
	if err != nil {
		s.clear()
		return
	}

	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()
}

// Login 失败时不修改任何状态
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.accept(resp)
}

func (s *Session) Register(ctx context.Context, in RegisterInput) (*User, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.client.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.accept(resp)
}

// Logout 服务端吊销失败也照常清空本地状态
func (s *Session) Logout(ctx context.Context) {
	if s.Token() != "" {
		_ = s.client.Logout(ctx)
	}
	s.clear()
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) accept(resp *AuthResponse) (*User, error) {
	user := resp.User
	if user == nil {
		user = &User{Role: resp.Role}
	}
	if err := s.store.Set(KeyToken, resp.AccessToken); err != nil {
		return nil, err
	}
	s.client.SetToken(resp.AccessToken)

	s.mu.Lock()
	s.user = user
	s.token = resp.AccessToken
	s.mu.Unlock()

	u := *user
	return &u, nil
}

func (s *Session) clear() {
	_ = s.store.Remove(KeyToken)
	s.client.SetToken("")
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
