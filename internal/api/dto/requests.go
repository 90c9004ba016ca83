package dto

import "github.com/eshaffer321/ledger-reconciler/internal/domain/record"

// ReconcileRequest chooses the columns of both sources and starts the
// automatic pass.
type ReconcileRequest struct {
	ColumnsA record.ColumnMapping `json:"columns_a"`
	ColumnsB record.ColumnMapping `json:"columns_b"`
}

// ToggleRequest flips one record in a selection bucket.
type ToggleRequest struct {
	Bucket string `json:"bucket" binding:"required"`
	Index  *int   `json:"index" binding:"required"`
}

// SelectRequest adds several records to a selection bucket at once.
type SelectRequest struct {
	Bucket  string `json:"bucket" binding:"required"`
	Indices []int  `json:"indices" binding:"required"`
}

// ProviderRequest sets the provider focus. An empty identifier clears it.
type ProviderRequest struct {
	Identifier string `json:"identifier"`
}
