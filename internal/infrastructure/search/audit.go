// Package search indexes account audit events into Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/social-account-service/internal/application"
)

type AuditSink struct {
	ES      *elasticsearch.Client
	Index   string
	Timeout time.Duration
}

// NewAuditSink returns nil when es is nil so callers can skip audit indexing.
func NewAuditSink(es *elasticsearch.Client, index string) *AuditSink {
	if es == nil || index == "" {
		return nil
	}
	return &AuditSink{ES: es, Index: index, Timeout: 3 * time.Second}
}

func (s *AuditSink) Record(ctx context.Context, ev application.AuditEvent) error {
	if s == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: s.Index, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", s.Index, res.Status())
	}
	return nil
}

var _ application.AuditSink = (*AuditSink)(nil)
