package mysql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'web' for key 'uq_clients_client_id'"}

	require.True(t, isUniqueViolation(dup))
	require.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup)))
	require.False(t, isUniqueViolation(&mysql.MySQLError{Number: 1452}))
	require.False(t, isUniqueViolation(errors.New("Duplicate entry")))
}

func TestNewStoreRejectsMalformedDSN(t *testing.T) {
	_, err := NewStore("not a dsn")
	require.Error(t, err)
}
