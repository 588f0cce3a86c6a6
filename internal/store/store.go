package store

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"waterline/internal/model"
)

// ErrNotFound 会话或下载不存在（或已过期）
var ErrNotFound = errors.New("not found")

// download 待下载产物
type download struct {
	Name      string
	Data      []byte
	expiresAt time.Time
}

// Store 内存会话存储：分析结果 + 带 TTL 的下载令牌
// 工具按次运行、无持久化需求，进程退出即清空
type Store struct {
	mu        sync.RWMutex
	analyses  map[string]*model.AnalysisResult
	downloads map[string]download
}

// NewStore 创建存储
func NewStore() *Store {
	return &Store{
		analyses:  make(map[string]*model.AnalysisResult),
		downloads: make(map[string]download),
	}
}

// SaveAnalysis 保存分析结果并分配 ID
func (s *Store) SaveAnalysis(res *model.AnalysisResult) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	res.ID = uuid.New().String()
	res.CreatedAt = time.Now()
	s.analyses[res.ID] = res
	return res.ID
}

// GetAnalysis 取分析结果
func (s *Store) GetAnalysis(id string) (*model.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.analyses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return res, nil
}

// AnalysisCount 已保存的分析数
func (s *Store) AnalysisCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.analyses)
}

// PutDownload 登记下载产物，返回令牌
func (s *Store) PutDownload(name string, data []byte, ttl time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	token := newRandomToken(24)
	s.downloads[token] = download{
		Name:      name,
		Data:      data,
		expiresAt: time.Now().Add(ttl),
	}
	return token
}

// GetDownload 取下载产物并注销令牌（一次性，取走即失效）
func (s *Store) GetDownload(token string) (name string, data []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	d, ok := s.downloads[token]
	if !ok {
		return "", nil, ErrNotFound
	}
	delete(s.downloads, token)
	return d.Name, d.Data, nil
}

func (s *Store) purgeExpiredLocked(now time.Time) {
	for k, d := range s.downloads {
		if now.After(d.expiresAt) {
			delete(s.downloads, k)
		}
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
