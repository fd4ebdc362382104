// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ExtractedFigures are the tangible-asset and stock figures of a filing.
// A nil field means no known source path carried it; it never means zero.
type ExtractedFigures struct {
	// AcquisitionValue is the gross acquisition value of tangible fixed assets.
	AcquisitionValue *float64 `json:"acquisition_value" yaml:"acquisition_value"`

	// AccumulatedDepreciation is the cumulative depreciation on those assets.
	AccumulatedDepreciation *float64 `json:"accumulated_depreciation" yaml:"accumulated_depreciation"`

	// NetBookValue is the current-period net book value, read directly or
	// derived as AcquisitionValue - AccumulatedDepreciation.
	NetBookValue *float64 `json:"net_book_value" yaml:"net_book_value"`

	// NetBookValuePrevious is the previous-period net book value.
	NetBookValuePrevious *float64 `json:"net_book_value_previous" yaml:"net_book_value_previous"`

	// NetBookValueChangePct is the change from previous to current in
	// percent, rounded to two decimals. Nil when previous is zero.
	NetBookValueChangePct *float64 `json:"net_book_value_change_pct" yaml:"net_book_value_change_pct"`

	// Stocks is the inventory amount.
	Stocks *float64 `json:"stocks" yaml:"stocks"`

	// Categories breaks tangible assets down by category.
	Categories []CategoryFigure `json:"categories" yaml:"categories"`
}

// CategoryFigure is one tangible-asset category line.
type CategoryFigure struct {
	Code     string   `json:"code" yaml:"code"`
	Label    string   `json:"label" yaml:"label"`
	Current  *float64 `json:"current" yaml:"current"`
	Previous *float64 `json:"previous" yaml:"previous"`

	// SharePercent is this category's share of the current net book value.
	SharePercent *float64 `json:"share_percent" yaml:"share_percent"`
}
