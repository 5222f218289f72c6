package district

import (
	"container/list"
	"sync"
	"time"
)

// 文档注释：本地 LRU 缓存（规范化地名为键）
// 背景：同一批志愿者数据中区县名高度重复，缓存命中结果可跳过全表子串扫描；TTL 可调。
// 约束：仅缓存地名表匹配结果（含未命中），不缓存抖动后的坐标与兜底坐标。
type LRU struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[string]*list.Element
}

type cached struct {
	m  Match
	ok bool
}

type kv struct {
	k   string
	v   cached
	exp time.Time
}

func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU{cap: capacity, ttl: ttl, lst: list.New(), dict: make(map[string]*list.Element)}
}

func (c *LRU) Get(k string) (Match, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		it := e.Value.(kv)
		if c.ttl <= 0 || time.Now().Before(it.exp) {
			c.lst.MoveToFront(e)
			return it.v.m, it.v.ok, true
		}
		c.lst.Remove(e)
		delete(c.dict, k)
	}
	return Match{}, false, false
}

func (c *LRU) Set(k string, m Match, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := time.Now().Add(c.ttl)
	if e, found := c.dict[k]; found {
		e.Value = kv{k: k, v: cached{m: m, ok: ok}, exp: exp}
		c.lst.MoveToFront(e)
		return
	}
	e := c.lst.PushFront(kv{k: k, v: cached{m: m, ok: ok}, exp: exp})
	c.dict[k] = e
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		if back != nil {
			it := back.Value.(kv)
			delete(c.dict, it.k)
			c.lst.Remove(back)
		}
	}
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
