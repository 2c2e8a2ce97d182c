package domain

// Branch identifies the reachability context a target was scanned under.
// Threshold sets are selected per branch, so the same probability can map to
// different grades depending on how the target answered.
type Branch string

const (
	BranchOnline   Branch = "ONLINE"
	BranchOffline  Branch = "OFFLINE"
	BranchParked   Branch = "PARKED"
	BranchWAF      Branch = "WAF"
	BranchSinkhole Branch = "SINKHOLE"
)

func (b Branch) IsValid() bool {
	switch b {
	case BranchOnline, BranchOffline, BranchParked, BranchWAF, BranchSinkhole:
		return true
	}
	return false
}

// ScanContext is the immutable input for one evaluation. The engine never
// retains it beyond the call that received it.
type ScanContext struct {
	Target string `json:"target"`
	Scheme string `json:"scheme"`
	Host   string `json:"host"`
	Path   string `json:"path"`
	Query  string `json:"query"`
	Branch Branch `json:"branch"`

	Evidence Evidence `json:"evidence"`
}

// Evidence carries the scanner-collected facts rule conditions can reference.
// Collection itself happens upstream; the engine only reads these fields.
type Evidence struct {
	DomainAgeDays   int  `json:"domain_age_days"`
	TLSValid        bool `json:"tls_valid"`
	HasLoginForm    bool `json:"has_login_form"`
	ThreatIntelHits int  `json:"threat_intel_hits"`
	RedirectCount   int  `json:"redirect_count"`
	UsesPunycode    bool `json:"uses_punycode"`
}
