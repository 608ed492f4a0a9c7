package aml_test

import (
	"context"
	"sync"

	"github.com/meridianledger/corebank/internal/aml"
	"github.com/meridianledger/corebank/internal/platform/eventbus"
)

// memAlertRepo is an in-memory aml.AlertRepository used only by this
// package's tests.
type memAlertRepo struct {
	mu   sync.Mutex
	byID map[string]*aml.Alert
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{byID: make(map[string]*aml.Alert)}
}

func (m *memAlertRepo) Create(_ context.Context, a *aml.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *a
	m.byID[a.ID] = &cp

	return nil
}

func (m *memAlertRepo) FindByID(_ context.Context, id string) (*aml.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.byID[id]
	if !ok {
		return nil, aml.ErrAlertNotFound(id)
	}

	cp := *a

	return &cp, nil
}

func (m *memAlertRepo) FindByAccountNumber(_ context.Context, accountNumber string) ([]*aml.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*aml.Alert

	for _, a := range m.byID {
		if a.AccountNumber == accountNumber {
			cp := *a
			out = append(out, &cp)
		}
	}

	return out, nil
}

func (m *memAlertRepo) Update(_ context.Context, a *aml.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[a.ID]; !ok {
		return aml.ErrAlertNotFound(a.ID)
	}

	cp := *a
	m.byID[a.ID] = &cp

	return nil
}

func (m *memAlertRepo) FindOpenAccountNumbers(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)

	var out []string

	for _, a := range m.byID {
		if a.Status != aml.AlertStatusOpen && a.Status != aml.AlertStatusUnderReview {
			continue
		}

		if !seen[a.AccountNumber] {
			seen[a.AccountNumber] = true
			out = append(out, a.AccountNumber)
		}
	}

	return out, nil
}

// memCaseRepo is an in-memory aml.CaseRepository.
type memCaseRepo struct {
	mu   sync.Mutex
	byID map[string]*aml.Case
}

func newMemCaseRepo() *memCaseRepo {
	return &memCaseRepo{byID: make(map[string]*aml.Case)}
}

func (m *memCaseRepo) Create(_ context.Context, c *aml.Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *c
	m.byID[c.ID] = &cp

	return nil
}

func (m *memCaseRepo) Update(_ context.Context, c *aml.Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *c
	m.byID[c.ID] = &cp

	return nil
}

func (m *memCaseRepo) FindByID(_ context.Context, id string) (*aml.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byID[id]
	if !ok {
		return nil, aml.ErrCaseNotFound(id)
	}

	cp := *c

	return &cp, nil
}

func (m *memCaseRepo) CountSARFiledByAccountNumber(_ context.Context, accountNumber string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0

	for _, c := range m.byID {
		if c.AccountNumber == accountNumber && c.SARFiled {
			count++
		}
	}

	return count, nil
}

// memReportRepo is an in-memory aml.ReportRepository.
type memReportRepo struct {
	mu   sync.Mutex
	byID map[string]*aml.Report
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{byID: make(map[string]*aml.Report)}
}

func (m *memReportRepo) Create(_ context.Context, r *aml.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *r
	m.byID[r.ID] = &cp

	return nil
}

func (m *memReportRepo) Update(_ context.Context, r *aml.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *r
	m.byID[r.ID] = &cp

	return nil
}

func (m *memReportRepo) FindByID(_ context.Context, id string) (*aml.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return nil, aml.ErrReportNotFound(id)
	}

	cp := *r

	return &cp, nil
}

// memRiskProfileRepo is an in-memory aml.RiskProfileRepository.
type memRiskProfileRepo struct {
	mu   sync.Mutex
	byID map[string]*aml.CustomerRiskProfile
}

func newMemRiskProfileRepo() *memRiskProfileRepo {
	return &memRiskProfileRepo{byID: make(map[string]*aml.CustomerRiskProfile)}
}

func (m *memRiskProfileRepo) Upsert(_ context.Context, p *aml.CustomerRiskProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	m.byID[p.CustomerID] = &cp

	return nil
}

func (m *memRiskProfileRepo) FindByCustomerID(_ context.Context, customerID string) (*aml.CustomerRiskProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[customerID]
	if !ok {
		return nil, nil
	}

	cp := *p

	return &cp, nil
}

// memMatchRepo is an in-memory aml.SanctionMatchRepository.
type memMatchRepo struct {
	mu   sync.Mutex
	byID map[string]*aml.SanctionMatch
}

func newMemMatchRepo() *memMatchRepo {
	return &memMatchRepo{byID: make(map[string]*aml.SanctionMatch)}
}

func (m *memMatchRepo) Create(_ context.Context, match *aml.SanctionMatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *match
	m.byID[match.ID] = &cp

	return nil
}

func (m *memMatchRepo) Update(_ context.Context, match *aml.SanctionMatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *match
	m.byID[match.ID] = &cp

	return nil
}

func (m *memMatchRepo) FindByID(_ context.Context, id string) (*aml.SanctionMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, ok := m.byID[id]
	if !ok {
		return nil, aml.ErrSanctionMatchNotFound(id)
	}

	cp := *match

	return &cp, nil
}

// memOutbox records staged events for assertions without a real publisher.
type memOutbox struct {
	mu     sync.Mutex
	events []eventbus.DomainEvent
}

func (m *memOutbox) StageEvent(_ context.Context, evt eventbus.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, evt)

	return nil
}
