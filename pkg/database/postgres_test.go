package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matrific/matrific-web/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "matrific_web", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=matrific_web sslmode=disable", dsn)
}
