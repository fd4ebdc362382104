// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// FilingReference describes one deposited set of annual accounts.
// Dates are kept as received; they may be ISO (2022-12-31) or 8-digit
// (20221231) depending on the source.
type FilingReference struct {
	// ReferenceID is the deposit reference number (e.g. "2023-00123456").
	ReferenceID string `json:"reference_id" yaml:"reference_id"`

	// DepositDate is when the accounts were filed.
	DepositDate string `json:"deposit_date" yaml:"deposit_date"`

	// ExerciseStart and ExerciseEnd bound the accounting period.
	ExerciseStart string `json:"exercise_start,omitempty" yaml:"exercise_start,omitempty"`
	ExerciseEnd   string `json:"exercise_end,omitempty" yaml:"exercise_end,omitempty"`

	// ModelType is the accounts model (e.g. "m02-f").
	ModelType string `json:"model_type,omitempty" yaml:"model_type,omitempty"`

	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	Currency    string `json:"currency,omitempty" yaml:"currency,omitempty"`
	DataVersion string `json:"data_version,omitempty" yaml:"data_version,omitempty"`
}

// Document is a downloaded filing in its rendered form.
type Document struct {
	Bytes         []byte
	ContentType   string
	ContentLength int64
}

// FilingAnalysis is the outcome of analysing the latest filing of an entity.
// Only metadata and final figures are persisted; page images never are.
type FilingAnalysis struct {
	// CBE is the 10-digit enterprise number.
	CBE string `json:"cbe" yaml:"cbe"`

	Reference FilingReference `json:"reference" yaml:"reference"`

	// Structured reports whether a machine-readable payload was available.
	Structured bool `json:"structured" yaml:"structured"`

	// Figures is nil when Structured is false.
	Figures *ExtractedFigures `json:"figures,omitempty" yaml:"figures,omitempty"`

	// Pages is the number of rendered pages when recognition ran.
	Pages int `json:"pages,omitempty" yaml:"pages,omitempty"`

	// OCRText is the recognised full text when recognition ran.
	OCRText string `json:"ocr_text,omitempty" yaml:"ocr_text,omitempty"`

	// RecognitionFailures lists 1-based page indexes whose recognition failed.
	RecognitionFailures []int `json:"recognition_failures,omitempty" yaml:"recognition_failures,omitempty"`

	AnalyzedAt time.Time `json:"analyzed_at" yaml:"analyzed_at"`
}
