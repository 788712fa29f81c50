package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viepratiqueservice-arch/Visela/internal/readmodel"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"silent": gormlogger.Silent,
		"ERROR":  gormlogger.Error,
		"warn":   gormlogger.Warn,
		"info":   gormlogger.Info,
		"":       gormlogger.Warn,
		"debug":  gormlogger.Warn,
	}
	for name, want := range tests {
		assert.Equal(t, want, GormLogLevel(name), name)
	}
}

func TestDecode(t *testing.T) {
	t.Run("known collection is typed", func(t *testing.T) {
		model, err := decode(readmodel.Products, []byte(`{"id":"p1","name":"Mangue"}`))
		require.NoError(t, err)
		p, ok := model.(*readmodel.ProductReadModel)
		require.True(t, ok)
		assert.Equal(t, "Mangue", p.Name)
	})

	t.Run("unknown collection stays generic", func(t *testing.T) {
		model, err := decode("no_such_collection", []byte(`{"a":1}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": float64(1)}, model)
	})

	t.Run("malformed document", func(t *testing.T) {
		_, err := decode(readmodel.Products, []byte(`{"id":`))
		assert.Error(t, err)
	})
}
