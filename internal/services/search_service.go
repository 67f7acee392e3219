package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/rail-booking-core/internal/database"
	"github.com/smarttransit/rail-booking-core/internal/models"
	"golang.org/x/sync/errgroup"
)

// SearchConfig holds itinerary search limits
type SearchConfig struct {
	MinTransfer  time.Duration // shortest allowed connection at the transfer station
	MaxTransfer  time.Duration // longest allowed connection at the transfer station
	MaxFirstLegs int           // first-leg candidates considered per search
	Parallelism  int           // concurrent second-leg lookups
	CacheTTL     time.Duration
}

// DefaultSearchConfig returns the default search configuration
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MinTransfer:  20 * time.Minute,
		MaxTransfer:  6 * time.Hour,
		MaxFirstLegs: 200,
		Parallelism:  8,
		CacheTTL:     30 * time.Second,
	}
}

// SearchCache stores ranked, unfiltered itineraries per (origin, destination, date)
type SearchCache interface {
	Get(ctx context.Context, key string) ([]models.Itinerary, bool, error)
	Set(ctx context.Context, key string, itineraries []models.Itinerary, ttl time.Duration) error
}

// SearchService finds direct and one-transfer itineraries
type SearchService struct {
	trips  database.TripReader
	cache  SearchCache
	config SearchConfig
	logger *logrus.Logger
}

// NewSearchService creates a new search service. cache may be nil.
func NewSearchService(trips database.TripReader, cache SearchCache, config SearchConfig, logger *logrus.Logger) *SearchService {
	return &SearchService{
		trips:  trips,
		cache:  cache,
		config: config,
		logger: logger,
	}
}

// Search returns all itineraries from origin to destination departing on the
// requested day, ranked by departure time then total price, with filters applied.
func (s *SearchService) Search(ctx context.Context, req *models.SearchRequest) ([]models.Itinerary, error) {
	if err := validateSearch(req); err != nil {
		return nil, err
	}

	startTime := time.Now()
	log := s.logger.WithFields(logrus.Fields{
		"from": req.FromStationID,
		"to":   req.ToStationID,
		"date": req.DateString(),
	})

	ranked, cached := s.fromCache(ctx, req)
	if !cached {
		var err error
		ranked, err = s.rank(ctx, req)
		if err != nil {
			log.WithError(err).Error("Itinerary search failed")
			return nil, err
		}
		s.toCache(ctx, req, ranked)
	}

	results := ranked
	if !req.Filters.Empty() {
		results = filterItineraries(ranked, req.Filters)
	}

	log.WithFields(logrus.Fields{
		"results":    len(results),
		"ranked":     len(ranked),
		"cached":     cached,
		"elapsed_ms": time.Since(startTime).Milliseconds(),
	}).Info("Itinerary search completed")

	return results, nil
}

func validateSearch(req *models.SearchRequest) error {
	switch {
	case req == nil:
		return fmt.Errorf("%w: empty request", ErrInvalidSearchParameters)
	case req.FromStationID <= 0 || req.ToStationID <= 0:
		return fmt.Errorf("%w: origin and destination are required", ErrInvalidSearchParameters)
	case req.FromStationID == req.ToStationID:
		return fmt.Errorf("%w: origin and destination must differ", ErrInvalidSearchParameters)
	case req.Date.IsZero():
		return fmt.Errorf("%w: departure date is required", ErrInvalidSearchParameters)
	}
	return nil
}

// transferGroup is the set of first legs ending at one transfer station
type transferGroup struct {
	station   int64
	firstLegs []*models.Trip
	windows   [][2]time.Time
	from, to  time.Time // union of windows
	second    []models.Trip
}

// rank builds the deduplicated, sorted itinerary list without filters
func (s *SearchService) rank(ctx context.Context, req *models.SearchRequest) ([]models.Itinerary, error) {
	origin, destination := req.FromStationID, req.ToStationID
	dayStart, dayEnd := req.DayWindow()
	horizon := dayEnd.AddDate(0, 0, 1)

	direct, err := s.trips.LookupTripsByOriginDestinationInWindow(ctx, origin, destination, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to find direct trips: %w", err)
	}

	firstLegs, err := s.trips.LookupTripsByOriginInWindow(ctx, origin, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to find first legs: %w", err)
	}

	groups, order := s.groupFirstLegs(firstLegs, origin, destination, dayStart, horizon)

	g, gctx := errgroup.WithContext(ctx)
	if s.config.Parallelism > 0 {
		g.SetLimit(s.config.Parallelism)
	}
	for _, station := range order {
		group := groups[station]
		g.Go(func() error {
			trips, err := s.trips.LookupTripsByOriginDestinationInWindow(gctx, group.station, destination, group.from, group.to)
			if err != nil {
				return fmt.Errorf("failed to find second legs from station %d: %w", group.station, err)
			}
			group.second = trips
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	itineraries := []models.Itinerary{}
	add := func(it models.Itinerary) {
		key := it.Key()
		if seen[key] {
			return
		}
		seen[key] = true
		itineraries = append(itineraries, it)
	}

	for i := range direct {
		add(models.NewItinerary(models.NewLeg(&direct[i])))
	}

	for _, station := range order {
		group := groups[station]
		for i, first := range group.firstLegs {
			lo, hi := group.windows[i][0], group.windows[i][1]
			for j := range group.second {
				second := &group.second[j]
				if second.DepartureTime.Before(lo) || second.DepartureTime.After(hi) {
					continue
				}
				if second.Route.Destination.ID == origin {
					continue
				}
				add(models.NewItinerary(models.NewLeg(first), models.NewLeg(second)))
			}
		}
	}

	sortItineraries(itineraries)
	return itineraries, nil
}

// groupFirstLegs keeps first legs that can lead to a transfer and groups them
// by transfer station so each station is queried once. order lists stations
// in the order first met.
func (s *SearchService) groupFirstLegs(firstLegs []models.Trip, origin, destination int64, dayStart, horizon time.Time) (map[int64]*transferGroup, []int64) {
	groups := make(map[int64]*transferGroup)
	var order []int64
	considered := 0

	for i := range firstLegs {
		first := &firstLegs[i]
		transfer := first.Route.Destination.ID
		if transfer == origin || transfer == destination {
			continue
		}

		lo := first.ArrivalTime.Add(s.config.MinTransfer)
		if lo.Before(dayStart) {
			lo = dayStart
		}
		hi := first.ArrivalTime.Add(s.config.MaxTransfer)
		if hi.After(horizon) {
			hi = horizon
		}
		if lo.After(hi) {
			continue
		}

		if s.config.MaxFirstLegs > 0 && considered >= s.config.MaxFirstLegs {
			s.logger.WithFields(logrus.Fields{
				"origin":    origin,
				"limit":     s.config.MaxFirstLegs,
				"available": len(firstLegs),
			}).Warn("First leg candidates truncated")
			break
		}
		considered++

		group, ok := groups[transfer]
		if !ok {
			group = &transferGroup{station: transfer, from: lo, to: hi}
			groups[transfer] = group
			order = append(order, transfer)
		}
		group.firstLegs = append(group.firstLegs, first)
		group.windows = append(group.windows, [2]time.Time{lo, hi})
		if lo.Before(group.from) {
			group.from = lo
		}
		if hi.After(group.to) {
			group.to = hi
		}
	}
	return groups, order
}

// sortItineraries orders by first departure, then total price. Leg count and
// trip IDs break remaining ties so the order is stable across runs.
func sortItineraries(its []models.Itinerary) {
	sort.SliceStable(its, func(i, j int) bool {
		a, b := its[i], its[j]
		if !a.Departure().Equal(b.Departure()) {
			return a.Departure().Before(b.Departure())
		}
		if a.TotalPrice != b.TotalPrice {
			return a.TotalPrice < b.TotalPrice
		}
		if len(a.Legs) != len(b.Legs) {
			return len(a.Legs) < len(b.Legs)
		}
		return a.Key() < b.Key()
	})
}

func filterItineraries(its []models.Itinerary, f models.SearchFilters) []models.Itinerary {
	out := []models.Itinerary{}
	for _, it := range its {
		if matchesFilters(it, f) {
			out = append(out, it)
		}
	}
	return out
}

func matchesFilters(it models.Itinerary, f models.SearchFilters) bool {
	for _, leg := range it.Legs {
		if f.TrainType != "" && leg.TrainType != f.TrainType {
			return false
		}
		if f.CarClass != "" && leg.CarClass != f.CarClass {
			return false
		}
	}
	if f.DepartureFrom != nil && models.ClockOf(it.Departure()) < *f.DepartureFrom {
		return false
	}
	if f.ArrivalTo != nil && models.ClockOf(it.Arrival()) > *f.ArrivalTo {
		return false
	}
	if f.MaxPrice != nil && it.TotalPrice > *f.MaxPrice {
		return false
	}
	return true
}

func searchCacheKey(req *models.SearchRequest) string {
	return fmt.Sprintf("%d:%d:%s", req.FromStationID, req.ToStationID, req.DateString())
}

func (s *SearchService) fromCache(ctx context.Context, req *models.SearchRequest) ([]models.Itinerary, bool) {
	if s.cache == nil || s.config.CacheTTL <= 0 {
		return nil, false
	}
	its, ok, err := s.cache.Get(ctx, searchCacheKey(req))
	if err != nil {
		s.logger.WithError(err).Warn("Search cache read failed")
		return nil, false
	}
	return its, ok
}

func (s *SearchService) toCache(ctx context.Context, req *models.SearchRequest, its []models.Itinerary) {
	if s.cache == nil || s.config.CacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, searchCacheKey(req), its, s.config.CacheTTL); err != nil {
		s.logger.WithError(err).Warn("Search cache write failed")
	}
}
