package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectorsExpostosNoScrape(t *testing.T) {
	m := New("teste")
	m.DocumentosProcessados.WithLabelValues("concluido").Inc()
	m.DocumentosProcessados.WithLabelValues("erro").Inc()
	m.PrazosPerdidosTotal.Add(2)
	m.TarefasFalhasTotal.WithLabelValues("documento:processamento").Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	corpo := rec.Body.String()
	assert.Contains(t, corpo, `teste_documentos_processados_total{resultado="concluido"} 1`)
	assert.Contains(t, corpo, `teste_documentos_processados_total{resultado="erro"} 1`)
	assert.Contains(t, corpo, "teste_prazos_perdidos_total 2")
	assert.Contains(t, corpo, `teste_tarefas_falhas_total{tipo="documento:processamento"} 1`)
}

func TestRegistrosIndependentes(t *testing.T) {
	// Two instances under the same prefix never collide: each carries its
	// own registry.
	a := New("api")
	b := New("api")
	a.PrazosPerdidosTotal.Inc()

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "api_prazos_perdidos_total 0")
}
