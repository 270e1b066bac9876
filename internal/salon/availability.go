package salon

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/easysalon/salon-concierge/pkg/logging"
)

const (
	defaultOpenHour  = 9
	defaultCloseHour = 18
	lunchHour        = 12

	defaultSlotMinutes = 60
)

// TimeSlot is one bookable appointment opening at a branch.
type TimeSlot struct {
	Start    time.Time
	Duration int // minutes
	Price    float64
	Branch   string
	Service  string
}

// AvailabilityQuery narrows an availability check. A zero Date means the
// current day; an empty Service skips service matching.
type AvailabilityQuery struct {
	Date    time.Time
	Service string
}

// AvailabilityChecker derives appointment openings from branch operating
// hours and the service menu. The API exposes no slot endpoint, so slots
// are generated on the hour within each branch's open hours.
type AvailabilityChecker struct {
	client *Client
	logger *logging.Logger
	now    func() time.Time
}

// NewAvailabilityChecker creates an availability checker.
func NewAvailabilityChecker(client *Client, logger *logging.Logger) *AvailabilityChecker {
	if client == nil {
		panic("salon: client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityChecker{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Check returns the open slots for a query, across all branches. Slots in
// the past and during the lunch hour are excluded.
func (a *AvailabilityChecker) Check(ctx context.Context, q AvailabilityQuery) ([]TimeSlot, error) {
	branches, err := a.client.ListBranches(ctx)
	if err != nil {
		return nil, err
	}

	services, err := a.client.ListServices(ctx)
	if err != nil {
		a.logger.Warn("salon: availability check proceeding without service data", "error", err)
		services = nil
	}
	serviceName, duration, price := matchService(q.Service, services)

	date := q.Date
	if date.IsZero() {
		date = a.now()
	}

	var slots []TimeSlot
	for _, br := range branches {
		slots = append(slots, a.slotsForBranch(br, date, serviceName, duration, price)...)
	}
	return slots, nil
}

func (a *AvailabilityChecker) slotsForBranch(br Branch, date time.Time, service string, duration int, price float64) []TimeSlot {
	openAt := parseHour(br.OpenHourFrom, defaultOpenHour)
	closeAt := parseHour(br.OpenHourTo, defaultCloseHour)

	now := a.now()
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	var slots []TimeSlot
	for hour := openAt; hour < closeAt; hour++ {
		if hour == lunchHour {
			continue
		}
		start := day.Add(time.Duration(hour) * time.Hour)
		if !start.After(now) {
			continue
		}
		slots = append(slots, TimeSlot{
			Start:    start,
			Duration: duration,
			Price:    price,
			Branch:   br.Name,
			Service:  service,
		})
	}
	return slots
}

// matchService finds a service by case-insensitive substring and returns
// its name, duration, and price, with generic defaults when nothing
// matches.
func matchService(query string, services []Service) (string, int, float64) {
	if query == "" || len(services) == 0 {
		return "", defaultSlotMinutes, 0
	}
	lower := strings.ToLower(query)
	for _, svc := range services {
		name := strings.ToLower(svc.Name)
		if strings.Contains(name, lower) || strings.Contains(lower, name) {
			duration := svc.Time
			if duration <= 0 {
				duration = defaultSlotMinutes
			}
			return svc.Name, duration, svc.Price
		}
	}
	return "", defaultSlotMinutes, 0
}

// parseHour extracts the hour from an "HH:MM" open-hours value; null or
// malformed values fall back to the default.
func parseHour(v string, fallback int) int {
	parts := strings.SplitN(strings.TrimSpace(v), ":", 2)
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return fallback
	}
	return h
}
