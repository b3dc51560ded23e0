package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/epeers/marketsync/internal/models"
	"github.com/epeers/marketsync/internal/secid"
	"github.com/epeers/marketsync/internal/syncerr"
)

const noDataPayload = `{"Information": "No data for this request."}`

// fakeProvider serves canned payloads keyed by "<op>:<arg>".
type fakeProvider struct {
	mu       sync.Mutex
	payloads map[string]string
	errs     map[string]error
	calls    []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{payloads: map[string]string{}, errs: map[string]error{}}
}

func (p *fakeProvider) serve(call, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	if err, ok := p.errs[key]; ok {
		return nil, err
	}
	if payload, ok := p.payloads[key]; ok {
		return []byte(payload), nil
	}
	return []byte(noDataPayload), nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *fakeProvider) SymbolSearch(_ context.Context, keywords string) ([]byte, error) {
	k := "search:" + keywords
	return p.serve(k, k)
}

func (p *fakeProvider) GetListingStatus(_ context.Context, state string) ([]byte, error) {
	k := "listing:" + state
	return p.serve(k, k)
}

func (p *fakeProvider) Overview(_ context.Context, symbol string) ([]byte, error) {
	k := "overview:" + symbol
	return p.serve(k, k)
}

func (p *fakeProvider) Intraday(_ context.Context, symbol string) ([]byte, error) {
	k := "intraday:" + symbol
	return p.serve(k, k)
}

func (p *fakeProvider) CryptoIntraday(_ context.Context, symbol string) ([]byte, error) {
	k := "crypto:" + symbol
	return p.serve(k, k)
}

func (p *fakeProvider) Daily(_ context.Context, symbol, outputSize string) ([]byte, error) {
	return p.serve("daily:"+symbol+":"+outputSize, "daily:"+symbol)
}

func (p *fakeProvider) TopMovers(_ context.Context) ([]byte, error) {
	return p.serve("top", "top")
}

func (p *fakeProvider) News(_ context.Context, ticker string) ([]byte, error) {
	k := "news:" + ticker
	return p.serve(k, k)
}

// fakeStore is an in-memory implementation of every store interface.
type fakeStore struct {
	mu sync.Mutex

	symbols map[string]models.Security
	flags   map[int64]map[models.SymbolFlag]bool

	ticks map[int64][]models.IntradayTick
	bars  map[int64][]models.DailyBar
	tops  []models.TopStat

	overviews map[int64]models.Overview

	nextID       int64
	authors      map[string]int64
	sources      map[string]int64
	topics       map[string]int64
	authorInsert int
	newsHashes   map[int64][]string
	overviewAt   map[int64]newsSlot
	articles     map[string]models.StoredArticle
	feeds        []models.Feed
	authorMaps   int
	topicMaps    int
	sentiments   []models.TickerSentimentRow

	runs map[string]*models.SyncResult

	// insertErr, when set, is returned by every price insert.
	insertErr error
	// articleErr, when set, is returned by InsertArticle.
	articleErr error
	// flagErr, when set, is returned by SetFlag.
	flagErr error
}

// newsSlot locates a stored snapshot hash in newsHashes.
type newsSlot struct {
	sid int64
	idx int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		symbols:    map[string]models.Security{},
		flags:      map[int64]map[models.SymbolFlag]bool{},
		ticks:      map[int64][]models.IntradayTick{},
		bars:       map[int64][]models.DailyBar{},
		overviews:  map[int64]models.Overview{},
		authors:    map[string]int64{},
		sources:    map[string]int64{},
		topics:     map[string]int64{},
		newsHashes: map[int64][]string{},
		overviewAt: map[int64]newsSlot{},
		articles:   map[string]models.StoredArticle{},
		runs:       map[string]*models.SyncResult{},
	}
}

func (s *fakeStore) stores() Stores {
	return Stores{Symbols: s, Prices: s, Overviews: s, News: s, Runs: s}
}

// addSymbol seeds a symbol directly, bypassing the sync.
func (s *fakeStore) addSymbol(symbol string, cat secid.Category, seq uint32) models.SymbolRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	sid := secid.Encode(cat, seq)
	s.symbols[symbol] = models.Security{SID: sid, Symbol: symbol, SecType: cat.String()}
	return models.SymbolRef{SID: sid, Symbol: symbol}
}

func (s *fakeStore) flag(sid int64, f models.SymbolFlag) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[sid][f]
}

// --- SymbolStore ---

func (s *fakeStore) InsertSymbol(_ context.Context, sec models.Security) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.symbols[sec.Symbol]; ok {
		return 0, syncerr.New(syncerr.Duplicate, "insert symbol", fmt.Errorf("%s already exists", sec.Symbol))
	}
	for _, existing := range s.symbols {
		if existing.SID == sec.SID {
			return 0, syncerr.New(syncerr.Duplicate, "insert symbol", fmt.Errorf("sid %d already exists", sec.SID))
		}
	}
	s.symbols[sec.Symbol] = sec
	return sec.SID, nil
}

func (s *fakeStore) LoadSymbolMap(_ context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.symbols))
	for sym, sec := range s.symbols {
		out[sym] = sec.SID
	}
	return out, nil
}

func (s *fakeStore) ListSymbols(_ context.Context, sel models.SyncSelection, missing models.SymbolFlag) ([]models.SymbolRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := map[string]bool{}
	for _, sym := range sel.Symbols {
		wanted[sym] = true
	}
	var refs []models.SymbolRef
	for sym, sec := range s.symbols {
		if len(wanted) > 0 && !wanted[sym] {
			continue
		}
		if missing != "" && s.flags[sec.SID][missing] {
			continue
		}
		refs = append(refs, models.SymbolRef{SID: sec.SID, Symbol: sym})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].SID < refs[j].SID })
	if sel.Limit > 0 && len(refs) > sel.Limit {
		refs = refs[:sel.Limit]
	}
	return refs, nil
}

func (s *fakeStore) SetFlag(_ context.Context, sid int64, f models.SymbolFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flagErr != nil {
		return s.flagErr
	}
	if s.flags[sid] == nil {
		s.flags[sid] = map[models.SymbolFlag]bool{}
	}
	s.flags[sid][f] = true
	return nil
}

func (s *fakeStore) GetBySymbol(_ context.Context, symbol string) (*models.Security, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("symbol %s not found", symbol)
	}
	return &sec, nil
}

func (s *fakeStore) MaxSequences(_ context.Context) (map[secid.Category]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[secid.Category]uint32{}
	for _, sec := range s.symbols {
		key, ok := secid.Decode(sec.SID)
		if ok && key.Sequence > out[key.Category] {
			out[key.Category] = key.Sequence
		}
	}
	return out, nil
}

// --- PriceStore ---

func (s *fakeStore) MaxIntradayTimestamp(_ context.Context, sid int64) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *time.Time
	for _, t := range s.ticks[sid] {
		if latest == nil || t.Timestamp.After(*latest) {
			ts := t.Timestamp
			latest = &ts
		}
	}
	return latest, nil
}

func (s *fakeStore) MaxDailyDate(_ context.Context, sid int64) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *time.Time
	for _, b := range s.bars[sid] {
		if latest == nil || b.Date.After(*latest) {
			d := b.Date
			latest = &d
		}
	}
	return latest, nil
}

func (s *fakeStore) MaxTopStatDate(_ context.Context) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *time.Time
	for _, st := range s.tops {
		if latest == nil || st.Date.After(*latest) {
			d := st.Date
			latest = &d
		}
	}
	return latest, nil
}

func (s *fakeStore) InsertIntraday(_ context.Context, t models.IntradayTick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, existing := range s.ticks[t.SID] {
		if existing.Timestamp.Equal(t.Timestamp) {
			return syncerr.New(syncerr.Duplicate, "insert intraday", fmt.Errorf("tick exists"))
		}
	}
	s.ticks[t.SID] = append(s.ticks[t.SID], t)
	return nil
}

func (s *fakeStore) InsertDaily(_ context.Context, b models.DailyBar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.bars[b.SID] = append(s.bars[b.SID], b)
	return nil
}

func (s *fakeStore) InsertTopStat(_ context.Context, st models.TopStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.tops = append(s.tops, st)
	return nil
}

// --- OverviewStore ---

func (s *fakeStore) UpsertOverview(_ context.Context, ov models.Overview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overviews[ov.SID] = ov
	return nil
}

// --- NewsStore ---

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) LoadAuthors(context.Context) (map[string]int64, error) { return s.copyOf(s.authors), nil }
func (s *fakeStore) LoadSources(context.Context) (map[string]int64, error) { return s.copyOf(s.sources), nil }
func (s *fakeStore) LoadTopics(context.Context) (map[string]int64, error)  { return s.copyOf(s.topics), nil }

func (s *fakeStore) copyOf(m map[string]int64) map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *fakeStore) upsertName(m map[string]int64, name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := m[name]; ok {
		return id
	}
	id := s.id()
	m[name] = id
	return id
}

func (s *fakeStore) InsertAuthor(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	s.authorInsert++
	s.mu.Unlock()
	return s.upsertName(s.authors, name), nil
}

func (s *fakeStore) InsertSource(_ context.Context, name, _ string) (int64, error) {
	return s.upsertName(s.sources, name), nil
}

func (s *fakeStore) InsertTopic(_ context.Context, name string) (int64, error) {
	return s.upsertName(s.topics, name), nil
}

func (s *fakeStore) LatestNewsHash(_ context.Context, sid int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hashes := s.newsHashes[sid]
	if len(hashes) == 0 {
		return "", nil
	}
	return hashes[len(hashes)-1], nil
}

func (s *fakeStore) InsertNewsOverview(_ context.Context, sid int64, _ int, hash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newsHashes[sid] = append(s.newsHashes[sid], hash)
	id := s.id()
	s.overviewAt[id] = newsSlot{sid: sid, idx: len(s.newsHashes[sid]) - 1}
	return id, nil
}

func (s *fakeStore) SetNewsHash(_ context.Context, overviewID int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.overviewAt[overviewID]
	if !ok {
		return fmt.Errorf("news overview %d not found", overviewID)
	}
	s.newsHashes[slot.sid][slot.idx] = hash
	return nil
}

func (s *fakeStore) InsertArticle(_ context.Context, a models.StoredArticle) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.articleErr != nil {
		return false, s.articleErr
	}
	if _, ok := s.articles[a.HashID]; ok {
		return false, nil
	}
	s.articles[a.HashID] = a
	return true, nil
}

func (s *fakeStore) InsertFeed(_ context.Context, f models.Feed) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.id()
	s.feeds = append(s.feeds, f)
	return f.ID, nil
}

func (s *fakeStore) InsertAuthorMaps(_ context.Context, _ int64, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorMaps += len(ids)
	return nil
}

func (s *fakeStore) InsertTopicMaps(_ context.Context, _, _ int64, topics []models.TopicMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topicMaps += len(topics)
	return nil
}

func (s *fakeStore) InsertTickerSentiments(_ context.Context, _ int64, rows []models.TickerSentimentRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentiments = append(s.sentiments, rows...)
	return nil
}

// --- RunStore ---

func (s *fakeStore) StartRun(_ context.Context, res *models.SyncResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *res
	cp.State = models.StateRunning
	s.runs[res.RunID] = &cp
	return nil
}

func (s *fakeStore) FinishRun(_ context.Context, res *models.SyncResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[res.RunID]; !ok {
		return fmt.Errorf("run %s not started", res.RunID)
	}
	cp := *res
	s.runs[res.RunID] = &cp
	return nil
}

func (s *fakeStore) GetRun(_ context.Context, runID string) (*models.SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return res, nil
}
