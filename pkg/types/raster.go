// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RasterPage is one rendered page of a document.
type RasterPage struct {
	// Index is the 1-based physical page number.
	Index int `json:"index" yaml:"index"`

	// Image is the encoded page image (PNG).
	Image []byte `json:"-" yaml:"-"`
}

// PageFailure attributes a recognition error to a page.
type PageFailure struct {
	// Index is the 1-based page number, matching RasterPage.Index.
	Index int   `json:"index" yaml:"index"`
	Err   error `json:"-" yaml:"-"`
}

// RecognitionResult holds page text aligned 1:1 with the input pages.
type RecognitionResult struct {
	// Pages are the input pages, in input order.
	Pages []RasterPage `json:"-" yaml:"-"`

	// PerPageText[i] is the text of Pages[i]; empty when that page failed.
	PerPageText []string `json:"per_page_text" yaml:"per_page_text"`

	// FullText joins PerPageText in order with PageSeparator.
	FullText string `json:"full_text" yaml:"full_text"`

	// Failures lists the pages whose recognition failed, in page order.
	Failures []PageFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// PageSeparator marks a page boundary in RecognitionResult.FullText.
const PageSeparator = "\n\f\n"
