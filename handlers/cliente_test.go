package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inss_crm_go/services"
)

func TestClienteHandlerCreate(t *testing.T) {
	database := setupTestDB(t, "handler_cliente_create")
	escritorio := criarEscritorioTeste(t, database, "prev")
	usuario := criarUsuarioTeste(t, database, escritorio.ID, "adv@prev.adv.br")
	h := NewClienteHandler(services.NewClienteService(database))

	t.Run("cliente válido", func(t *testing.T) {
		body := `{"nome": "João da Silva", "cpf": "529.982.247-25"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/v1/clientes", strings.NewReader(body))
		autenticar(c, escritorio.ID, usuario.ID, usuario.Role)

		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				ID  string `json:"id"`
				CPF string `json:"cpf"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "52998224725", resp.Data.CPF)
	})

	t.Run("CPF inválido", func(t *testing.T) {
		body := `{"nome": "João da Silva", "cpf": "111.111.111-11"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/v1/clientes", strings.NewReader(body))
		autenticar(c, escritorio.ID, usuario.ID, usuario.Role)

		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	})
}

func TestClienteHandlerIsolamentoTenant(t *testing.T) {
	database := setupTestDB(t, "handler_cliente_tenant")
	escritorioA := criarEscritorioTeste(t, database, "prev-a")
	escritorioB := criarEscritorioTeste(t, database, "prev-b")
	usuarioA := criarUsuarioTeste(t, database, escritorioA.ID, "a@prev.adv.br")
	usuarioB := criarUsuarioTeste(t, database, escritorioB.ID, "b@prev.adv.br")
	h := NewClienteHandler(services.NewClienteService(database))

	body := `{"nome": "Cliente do A"}`
	_, c, rec := setupEcho(http.MethodPost, "/api/v1/clientes", strings.NewReader(body))
	autenticar(c, escritorioA.ID, usuarioA.ID, usuarioA.Role)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var criado struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &criado))

	// Same route, other tenant: the record does not exist for them.
	_, c2, rec2 := setupEcho(http.MethodGet, "/api/v1/clientes/"+criado.Data.ID, nil)
	c2.SetParamNames("id")
	c2.SetParamValues(criado.Data.ID)
	autenticar(c2, escritorioB.ID, usuarioB.ID, usuarioB.Role)

	require.NoError(t, h.Get(c2))
	assert.Equal(t, http.StatusNotFound, rec2.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestClienteHandlerList(t *testing.T) {
	database := setupTestDB(t, "handler_cliente_list")
	escritorio := criarEscritorioTeste(t, database, "prev")
	usuario := criarUsuarioTeste(t, database, escritorio.ID, "adv@prev.adv.br")
	clientes := services.NewClienteService(database)
	h := NewClienteHandler(clientes)

	for _, nome := range []string{"Ana", "Bruno", "Carla"} {
		body := `{"nome": "` + nome + `"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/v1/clientes", strings.NewReader(body))
		autenticar(c, escritorio.ID, usuario.ID, usuario.Role)
		require.NoError(t, h.Create(c))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	_, c, rec := setupEcho(http.MethodGet, "/api/v1/clientes?page=1&page_size=2", nil)
	autenticar(c, escritorio.ID, usuario.ID, usuario.Role)

	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success  bool              `json:"success"`
		Data     []json.RawMessage `json:"data"`
		Total    int64             `json:"total"`
		Page     int               `json:"page"`
		PageSize int               `json:"page_size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(3), resp.Total)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 2, resp.PageSize)
}
