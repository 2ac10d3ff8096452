package entities

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Status is one stage of the traject pipeline. Values outside the canonical
// set can still appear when legacy documents are read; they are carried
// through untouched and treated as unknown by every ordering helper.
type Status string

const (
	StatusCollecting Status = "Collecting"
	StatusReview     Status = "Review"
	StatusQuality    Status = "Quality"
	StatusAssessment Status = "Assessment"
	StatusComplete   Status = "Complete"
	StatusArchived   Status = "Archived"
)

// InitialStatus is assigned to freshly provisioned trajects and to records
// that carry no status at all.
const InitialStatus = StatusCollecting

// OrderUnknown is the sequence position reported for unmapped statuses. It
// sorts after every canonical stage.
const OrderUnknown = math.MaxInt

var pipeline = []Status{
	StatusCollecting,
	StatusReview,
	StatusQuality,
	StatusAssessment,
	StatusComplete,
	StatusArchived,
}

var statusOrder = func() map[Status]int {
	order := make(map[Status]int, len(pipeline))
	for i, status := range pipeline {
		order[status] = i
	}
	return order
}()

// Historical and localized spellings found in older records and clients.
var statusAliases = map[string]Status{
	"collecting":           StatusCollecting,
	"collecting evidence":  StatusCollecting,
	"evidence":             StatusCollecting,
	"new":                  StatusCollecting,
	"open":                 StatusCollecting,
	"verzamelen":           StatusCollecting,
	"bewijs verzamelen":    StatusCollecting,
	"portfolio":            StatusCollecting,
	"in review":            StatusReview,
	"review coach":         StatusReview,
	"coach review":         StatusReview,
	"beoordeling coach":    StatusReview,
	"ter review":           StatusReview,
	"quality":              StatusQuality,
	"quality check":        StatusQuality,
	"quality control":      StatusQuality,
	"kwaliteit":            StatusQuality,
	"kwaliteitscontrole":   StatusQuality,
	"kwaliteitscheck":      StatusQuality,
	"assessment":           StatusAssessment,
	"assessing":            StatusAssessment,
	"beoordeling":          StatusAssessment,
	"in beoordeling":       StatusAssessment,
	"assessor":             StatusAssessment,
	"complete":             StatusComplete,
	"completed":            StatusComplete,
	"done":                 StatusComplete,
	"afgerond":             StatusComplete,
	"voltooid":             StatusComplete,
	"archived":             StatusArchived,
	"archive":              StatusArchived,
	"gearchiveerd":         StatusArchived,
	"archief":              StatusArchived,
	"verlopen":             StatusArchived,
}

// Pipeline returns the canonical stages in order.
func Pipeline() []Status {
	out := make([]Status, len(pipeline))
	copy(out, pipeline)
	return out
}

// NormalizeStatus resolves raw against the canonical labels and then the alias
// table, case-insensitively. Unmatched input is returned verbatim.
func NormalizeStatus(raw string) Status {
	key := foldLabel(raw)
	if key == "" {
		return Status(raw)
	}
	for _, status := range pipeline {
		if foldLabel(string(status)) == key {
			return status
		}
	}
	if status, ok := statusAliases[key]; ok {
		return status
	}
	return Status(raw)
}

// ResolveStatus normalizes raw and reports whether it maps to a canonical stage.
func ResolveStatus(raw string) (Status, bool) {
	status := NormalizeStatus(raw)
	return status, status.Known()
}

// StatusSpellings lists every folded spelling that normalizes to status,
// canonical first. Stores use it to match legacy labels without decoding rows.
func StatusSpellings(status Status) []string {
	var aliases []string
	for alias, target := range statusAliases {
		if target == status && alias != foldLabel(string(status)) {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)
	return append([]string{foldLabel(string(status))}, aliases...)
}

// Known reports whether s is one of the canonical stages.
func (s Status) Known() bool {
	_, ok := statusOrder[s]
	return ok
}

// Order is the position of s in the pipeline, or OrderUnknown.
func (s Status) Order() int {
	if idx, ok := statusOrder[s]; ok {
		return idx
	}
	return OrderUnknown
}

// Next returns the stage after s. Archived and unknown statuses have none.
func (s Status) Next() (Status, bool) {
	idx, ok := statusOrder[s]
	if !ok || idx+1 >= len(pipeline) {
		return "", false
	}
	return pipeline[idx+1], true
}

// Previous returns the stage before s. Collecting and unknown statuses have none.
func (s Status) Previous() (Status, bool) {
	idx, ok := statusOrder[s]
	if !ok || idx == 0 {
		return "", false
	}
	return pipeline[idx-1], true
}

var stageOwners = map[Status]Role{
	StatusCollecting: RoleCoach,
	StatusReview:     RoleCoach,
	StatusQuality:    RoleQualityCoordinator,
	StatusAssessment: RoleAssessor,
	StatusComplete:   RoleAdmin,
	StatusArchived:   RoleAdmin,
}

// OwnerRole is the single role allowed to move a traject out of s.
func (s Status) OwnerRole() (Role, bool) {
	role, ok := stageOwners[s]
	return role, ok
}

func foldLabel(raw string) string {
	folded := cases.Fold().String(strings.TrimSpace(raw))
	folded = strings.NewReplacer("_", " ", "-", " ").Replace(folded)
	return strings.Join(strings.Fields(folded), " ")
}
