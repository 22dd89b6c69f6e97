package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
	"github.com/davicafu/catalogsync/tests/mocks"
)

func TestZapAuditLogger_Log(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	a := NewZapAuditLogger(zap.New(core))

	err := a.Log(context.Background(), domain.AuditRecord{
		DescriptorID: "d-1",
		Kind:         domain.ProductUpdated,
		LocalID:      7,
		RemoteID:     "R7",
		Status:       500,
		Payload:      map[string]interface{}{"user": "admin"},
		At:           time.Now(),
	})

	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "audit", entry.LoggerName)
	fields := entry.ContextMap()
	assert.Equal(t, "product-updated", fields["event"])
	assert.Equal(t, int64(500), fields["status"])
	assert.Equal(t, "R7", fields["dinkassa_id"])
}

func TestMulti_JoinsErrors(t *testing.T) {
	ok := new(mocks.MockAuditLogger)
	failing := new(mocks.MockAuditLogger)
	ok.On("Log", mock.Anything, mock.Anything).Return(nil).Once()
	failing.On("Log", mock.Anything, mock.Anything).Return(errors.New("clickhouse down")).Once()

	err := Multi{failing, ok}.Log(context.Background(), domain.AuditRecord{Kind: domain.ProductCreated})

	assert.ErrorContains(t, err, "clickhouse down")
	ok.AssertExpectations(t)
	failing.AssertExpectations(t)
}
