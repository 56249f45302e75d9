package recipient

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/founders-outreach/internal/domain"
)

// ObjectGetter is the S3 subset used to fetch uploaded recipient lists.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Importer reads recipient CSVs from uploads and object storage and feeds
// them through IngestBatch.
type Importer struct {
	svc    *Service
	store  ObjectGetter
	bucket string
}

// NewImporter creates an importer. store may be nil when no bucket is
// configured; IngestFromObject then fails with ErrValidation.
func NewImporter(svc *Service, store ObjectGetter, bucket string) *Importer {
	return &Importer{svc: svc, store: store, bucket: bucket}
}

// IngestCSV parses a CSV with a header row and ingests it. Recognized
// columns are email, name, company, title, persona and invite_code; the
// email column is required and unknown columns are ignored.
func (im *Importer) IngestCSV(ctx context.Context, campaignID string, r io.Reader) (*IngestResult, error) {
	rows, err := ParseCSV(r, im.svc.maxRows)
	if err != nil {
		return nil, err
	}
	return im.svc.IngestBatch(ctx, campaignID, rows)
}

// IngestFromObject downloads a CSV from the import bucket and ingests it.
func (im *Importer) IngestFromObject(ctx context.Context, campaignID, key string) (*IngestResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: object key is required", ErrValidation)
	}
	if im.store == nil || im.bucket == "" {
		return nil, fmt.Errorf("%w: object import is not configured", ErrValidation)
	}

	out, err := im.store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(im.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch s3://%s/%s: %w", im.bucket, key, err)
	}
	defer out.Body.Close()

	return im.IngestCSV(ctx, campaignID, out.Body)
}

// ParseCSV reads recipient rows from CSV. maxRows > 0 bounds the number of
// data rows accepted.
func ParseCSV(r io.Reader, maxRows int) ([]domain.RecipientRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: csv is empty", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %v", ErrValidation, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	if _, ok := cols["email"]; !ok {
		return nil, fmt.Errorf("%w: csv has no email column", ErrValidation)
	}
	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []domain.RecipientRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv: %v", ErrValidation, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if maxRows > 0 && len(rows) >= maxRows {
			return nil, fmt.Errorf("%w: csv exceeds limit of %d rows", ErrTooManyRows, maxRows)
		}
		rows = append(rows, domain.RecipientRow{
			Email:      field(rec, "email"),
			Name:       field(rec, "name"),
			Company:    field(rec, "company"),
			Title:      field(rec, "title"),
			Persona:    field(rec, "persona"),
			InviteCode: field(rec, "invite_code"),
		})
	}
	return rows, nil
}
