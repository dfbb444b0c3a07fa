package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
tables:
  - name: customer
    type: csv
    path: customer.csv
  - name: infos
    type: csv
    path: infos.csv
models:
  - name: Customer
    table: customer
    columns:
      - {name: id, primary: true}
      - {name: first_name}
      - {name: last_name}
      - {name: company}
  - name: Company
    table: customer
    columns:
      - {name: id, primary: true}
      - {name: company}
  - name: CustomerInfo
    table: infos
    columns:
      - {name: id, primary: true}
      - {name: age}
      - {name: state}
`

func TestLoadParsesTablesAndModels(t *testing.T) {
	reg, err := Load([]byte(seedYAML))
	require.NoError(t, err)
	assert.Len(t, reg.Tables(), 2)
	assert.Len(t, reg.Models(), 3)

	table, err := reg.TableOf("CustomerInfo")
	require.NoError(t, err)
	assert.Equal(t, "infos", table)
}

func TestLoadRejectsUnknownTableType(t *testing.T) {
	_, err := Load([]byte(`
tables:
  - name: t
    type: parquet
models: []
`))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load([]byte("tables: [this is not valid: ["))
	assert.Error(t, err)
}

func TestLoadDuckDBVariableTable(t *testing.T) {
	reg, err := Load([]byte(`
tables:
  - name: view1
    type: duckdb_variable
models: []
`))
	require.NoError(t, err)
	tables := reg.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, OriginVariable, tables[0].Origin)
}
