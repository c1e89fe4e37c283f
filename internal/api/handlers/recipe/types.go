package recipe

import "recipe-extractor/internal/core/batch"

// ParseRequest 規則式擷取請求
type ParseRequest struct {
	Text  string `json:"text"`
	Title string `json:"title,omitempty"` // 選填，覆寫標題推斷
}

// AmountRequest 份量解析請求
type AmountRequest struct {
	Amount string `json:"amount"`
}

// IdentityRequest 識別碼計算請求
type IdentityRequest struct {
	Title  string `json:"title" binding:"required"`
	Source string `json:"source" binding:"required"`
}

// IdentityResponse 識別碼
type IdentityResponse struct {
	ID string `json:"id"`
}

// IngestRequest 擷取並寫入請求
type IngestRequest struct {
	Text   string `json:"text" binding:"required"`
	Title  string `json:"title,omitempty"`
	Source string `json:"source" binding:"required"`
}

// BatchRequest 批次寫入請求
type BatchRequest struct {
	Documents []IngestRequest `json:"documents" binding:"required,min=1,dive"`
}

// BatchItem 單筆批次結果
type BatchItem struct {
	Source        string `json:"source"`
	Outcome       string `json:"outcome"`
	ID            string `json:"id,omitempty"`
	AlreadyExists bool   `json:"already_exists,omitempty"`
	Attempts      int    `json:"attempts"`
	Error         string `json:"error,omitempty"`
}

// BatchResponse 批次結果
type BatchResponse struct {
	Results []BatchItem    `json:"results"`
	Summary map[string]int `json:"summary"`
}

func newBatchItem(r batch.Result) BatchItem {
	item := BatchItem{
		Source:   r.Document.Source,
		Outcome:  r.Outcome,
		Attempts: r.Attempts,
	}
	if r.Ingest != nil {
		item.ID = r.Ingest.ID
		item.AlreadyExists = r.Ingest.AlreadyExists
	}
	if r.Err != nil {
		item.Error = r.Err.Error()
	}
	return item
}
