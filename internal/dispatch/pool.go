package dispatch

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shenikar/crisis_command_system/internal/models"
	"github.com/shenikar/crisis_command_system/internal/risk"
)

// DefaultPoolSizes - стандартный состав пула ресурсов
var DefaultPoolSizes = map[string]int{
	risk.CategoryFire:       2,
	risk.CategoryFlood:      2,
	risk.CategoryGasLeak:    1,
	risk.CategoryAccident:   2,
	risk.CategoryEarthquake: 1,
}

// unitETAs - базовое расчётное время прибытия по категориям
var unitETAs = map[string]time.Duration{
	risk.CategoryFire:       6 * time.Minute,
	risk.CategoryFlood:      9 * time.Minute,
	risk.CategoryGasLeak:    7 * time.Minute,
	risk.CategoryAccident:   5 * time.Minute,
	risk.CategoryEarthquake: 12 * time.Minute,
}

const defaultETA = 10 * time.Minute

// Candidate - кризис, претендующий на ресурсы при разрешении конфликтов
type Candidate struct {
	CrisisID    uuid.UUID
	Category    string
	RiskScore   float64
	SubmittedAt time.Time
}

// Pool - пул свободных юнитов по категориям.
// Разрешение конфликтов и возврат юнитов идут под одним мьютексом,
// поэтому два конкурентных разрешения не могут забронировать один юнит.
type Pool struct {
	mu    sync.Mutex
	units map[string][]string
}

// NewPool создает пул с позывными вида "Fire-1", "Fire-2" по заданным размерам
func NewPool(sizes map[string]int) *Pool {
	if sizes == nil {
		sizes = DefaultPoolSizes
	}
	units := make(map[string][]string, len(sizes))
	for category, n := range sizes {
		callsigns := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			callsigns = append(callsigns, fmt.Sprintf("%s-%d", category, i))
		}
		units[category] = callsigns
	}
	return &Pool{units: units}
}

// Resolve распределяет юниты между кандидатами: выше риск - раньше,
// при равном риске - кто раньше подан. Юнит изымается из пула в момент
// назначения. Кандидат без свободного юнита получает план с пометкой Skipped.
func (p *Pool) Resolve(candidates []Candidate) map[uuid.UUID]models.DispatchPlan {
	p.mu.Lock()
	defer p.mu.Unlock()

	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].RiskScore != ordered[j].RiskScore {
			return ordered[i].RiskScore > ordered[j].RiskScore
		}
		return ordered[i].SubmittedAt.Before(ordered[j].SubmittedAt)
	})

	plans := make(map[uuid.UUID]models.DispatchPlan, len(ordered))
	for _, c := range ordered {
		plan := models.DispatchPlan{CrisisID: c.CrisisID}

		free := p.units[c.Category]
		if len(free) == 0 {
			plan.Skipped = append(plan.Skipped, c.Category)
		} else {
			callsign := free[0]
			p.units[c.Category] = free[1:]
			plan.Units = append(plan.Units, models.Unit{
				Category:   c.Category,
				Callsign:   callsign,
				ETA:        etaFor(c.Category),
				ETAMinutes: etaFor(c.Category).Minutes(),
			})
		}
		plans[c.CrisisID] = plan
	}
	return plans
}

// ResolveOne - разрешение для единственного кандидата
func (p *Pool) ResolveOne(c Candidate) models.DispatchPlan {
	return p.Resolve([]Candidate{c})[c.CrisisID]
}

// Release возвращает юниты невыполненного плана обратно в пул.
// Вызывается при отклонении или истечении решения.
func (p *Pool) Release(plan models.DispatchPlan) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, u := range plan.Units {
		p.units[u.Category] = append(p.units[u.Category], u.Callsign)
	}
}

// Available возвращает снимок числа свободных юнитов по категориям
func (p *Pool) Available() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]int, len(p.units))
	for category, free := range p.units {
		out[category] = len(free)
	}
	return out
}

func etaFor(category string) time.Duration {
	if eta, ok := unitETAs[category]; ok {
		return eta
	}
	return defaultETA
}
