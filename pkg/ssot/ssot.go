// Package ssot defines the single-source-of-truth document stored whole in
// the jobs.ssot column. Field names are part of the platform contract with
// the API side; the worker reads the document at the start of every stage
// and writes it back with the stage's additions.
package ssot

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Page classifications.
const (
	ClassFloorPlan  = "FLOOR_PLAN"
	ClassElevation  = "ELEVATION"
	ClassSchedule   = "SCHEDULE"
	ClassDetail     = "DETAIL"
	ClassNotes      = "NOTES"
	ClassTitle      = "TITLE"
	ClassIrrelevant = "IRRELEVANT"
)

// Item categories.
const (
	CategoryShowerEnclosure = "SHOWER_ENCLOSURE"
	CategoryVanityMirror    = "VANITY_MIRROR"
)

// Dimension sources.
const (
	SourceDimensionCallout = "DIMENSION_CALLOUT"
	SourceFieldVerify      = "FIELD_VERIFY"
	SourceManual           = "MANUAL"
)

// Item flags.
const (
	FlagNeedsReview         = "NEEDS_REVIEW"
	FlagToBeVerifiedInField = "TO_BE_VERIFIED_IN_FIELD"
)

// Output types.
const (
	OutputBidPDF          = "BID_PDF"
	OutputShopDrawingsPDF = "SHOP_DRAWINGS_PDF"
)

// Document is the full SSOT payload. The API side writes keys the worker
// does not model (review state, customer annotations); those ride along in
// extra so a whole-document write-back never destroys them.
type Document struct {
	Metadata         *Metadata         `json:"metadata,omitempty"`
	PageIndex        []PageEntry       `json:"pageIndex,omitempty"`
	Routing          *Routing          `json:"routing,omitempty"`
	Items            []Item            `json:"items,omitempty"`
	Assumptions      []string          `json:"assumptions,omitempty"`
	Exclusions       []string          `json:"exclusions,omitempty"`
	MeasurementTasks []MeasurementTask `json:"measurementTasks,omitempty"`
	Pricing          *Pricing          `json:"pricing,omitempty"`
	Outputs          []Output          `json:"outputs,omitempty"`

	extra map[string]json.RawMessage
}

var documentKeys = knownKeys("metadata", "pageIndex", "routing", "items",
	"assumptions", "exclusions", "measurementTasks", "pricing", "outputs")

func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	if err := json.Unmarshal(data, (*plain)(d)); err != nil {
		return err
	}
	d.extra = extraKeys(data, documentKeys)
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	typed, err := json.Marshal(plain(d))
	if err != nil {
		return nil, err
	}
	return mergeExtra(typed, d.extra)
}

// Metadata carries project facts written by the API side plus the page
// count the indexing stage fills in.
type Metadata struct {
	PageCount   int    `json:"pageCount"`
	ProjectName string `json:"projectName,omitempty"`
	ClientName  string `json:"clientName,omitempty"`
	Address     string `json:"address,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`

	extra map[string]json.RawMessage
}

var metadataKeys = knownKeys("pageCount", "projectName", "clientName",
	"address", "updatedAt")

func (m *Metadata) UnmarshalJSON(data []byte) error {
	type plain Metadata
	if err := json.Unmarshal(data, (*plain)(m)); err != nil {
		return err
	}
	m.extra = extraKeys(data, metadataKeys)
	return nil
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	type plain Metadata
	typed, err := json.Marshal(plain(m))
	if err != nil {
		return nil, err
	}
	return mergeExtra(typed, m.extra)
}

// PageEntry is one page's classification result.
type PageEntry struct {
	PageNum        int      `json:"pageNum"`
	Classification string   `json:"classification"`
	Confidence     float64  `json:"confidence"`
	RelevantTo     []string `json:"relevantTo"`
}

type Routing struct {
	RelevantPages []int `json:"relevantPages"`
	TotalPages    int   `json:"totalPages"`
}

// Dimension is one measured or to-be-measured dimension of an item.
type Dimension struct {
	Value      *float64 `json:"value"`
	Unit       string   `json:"unit"`
	Source     string   `json:"source"`
	Confidence float64  `json:"confidence"`
}

// Item is one scope item (a shower enclosure or a vanity mirror).
type Item struct {
	ItemID          string               `json:"itemId"`
	Category        string               `json:"category"`
	UnitID          string               `json:"unitId"`
	Location        string               `json:"location"`
	Configuration   string               `json:"configuration"`
	TemplateID      string               `json:"templateId"`
	Dimensions      map[string]Dimension `json:"dimensions"`
	GlassType       string               `json:"glassType"`
	Hardware        []string             `json:"hardware"`
	Flags           []string             `json:"flags"`
	Notes           string               `json:"notes"`
	SourcePages     []int                `json:"sourcePages"`
	QuantityPerUnit int                  `json:"quantityPerUnit"`

	extra map[string]json.RawMessage
}

var itemKeys = knownKeys("itemId", "category", "unitId", "location",
	"configuration", "templateId", "dimensions", "glassType", "hardware",
	"flags", "notes", "sourcePages", "quantityPerUnit")

func (i *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	if err := json.Unmarshal(data, (*plain)(i)); err != nil {
		return err
	}
	i.extra = extraKeys(data, itemKeys)
	return nil
}

func (i Item) MarshalJSON() ([]byte, error) {
	type plain Item
	typed, err := json.Marshal(plain(i))
	if err != nil {
		return nil, err
	}
	return mergeExtra(typed, i.extra)
}

// HasFlag reports whether the item carries the given flag.
func (i *Item) HasFlag(flag string) bool {
	for _, f := range i.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddFlag appends the flag when not already present.
func (i *Item) AddFlag(flag string) {
	if !i.HasFlag(flag) {
		i.Flags = append(i.Flags, flag)
	}
}

// MeasurementTask mirrors the measurement_tasks row inside the SSOT.
type MeasurementTask struct {
	TaskID        string   `json:"taskId"`
	ItemID        string   `json:"itemId"`
	DimensionKey  string   `json:"dimensionKey"`
	Status        string   `json:"status"`
	PageNum       int      `json:"pageNum"`
	Calibration   *float64 `json:"calibration"`
	MeasuredValue *float64 `json:"measuredValue"`
	MeasuredBy    *string  `json:"measuredBy"`
	MeasuredAt    *string  `json:"measuredAt"`
}

// Breakdown splits a line item price into cost classes.
type Breakdown struct {
	Glass    float64 `json:"glass"`
	Hardware float64 `json:"hardware"`
	Labor    float64 `json:"labor"`
	Other    float64 `json:"other"`
}

// LineItem is one priced row of the bid.
type LineItem struct {
	ItemID         string     `json:"itemId"`
	Description    string     `json:"description"`
	UnitPrice      float64    `json:"unitPrice"`
	Quantity       int        `json:"quantity"`
	TotalPrice     float64    `json:"totalPrice"`
	Breakdown      *Breakdown `json:"breakdown,omitempty"`
	ManualOverride bool       `json:"manualOverride"`
	OverrideReason *string    `json:"overrideReason"`
}

// RuleSnapshot pins the pricing rule as applied, so later pricebook edits
// cannot silently change an existing bid.
type RuleSnapshot struct {
	RuleID    string          `json:"ruleId"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Formula   json.RawMessage `json:"formula"`
	AppliesTo json.RawMessage `json:"appliesTo"`
}

type Pricing struct {
	PricebookVersionID    *string        `json:"pricebookVersionId"`
	PricebookSnapshotDate *string        `json:"pricebookSnapshotDate"`
	Rules                 []RuleSnapshot `json:"rules"`
	LineItems             []LineItem     `json:"lineItems"`
	Subtotal              float64        `json:"subtotal"`
	Tax                   float64        `json:"tax"`
	Total                 float64        `json:"total"`
}

// Output records one generated artifact.
type Output struct {
	OutputID    string `json:"outputId"`
	Type        string `json:"type"`
	Version     int    `json:"version"`
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	GeneratedAt string `json:"generatedAt"`
	SHA256      string `json:"sha256"`
}

// Load parses the ssot column. Empty or NULL payloads yield an empty
// document rather than an error.
func Load(raw json.RawMessage) (*Document, error) {
	doc := &Document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse ssot document")
	}
	return doc, nil
}

// Dump serializes the document for the ssot column.
func (d *Document) Dump() (json.RawMessage, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize ssot document")
	}
	return raw, nil
}

func knownKeys(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

// extraKeys returns the top-level keys of data that known does not cover.
func extraKeys(data []byte, known map[string]struct{}) map[string]json.RawMessage {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	for k := range m {
		if _, ok := known[k]; ok {
			delete(m, k)
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// mergeExtra folds preserved unknown keys back into a typed marshal. Typed
// fields win on a key collision.
func mergeExtra(typed []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return typed, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(typed, &m); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
	return json.Marshal(m)
}
