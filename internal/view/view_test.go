package view

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/prospecting-dashboard/internal/model"
)

func TestRenderHome(t *testing.T) {
	chart, err := ChartJSON([]model.ChartPoint{{Kind: "AIprospection", Leads: 4}})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	err = Render(w, http.StatusOK, "home", HomePage{
		UserName:    "Ana <script>",
		Active:      []*model.Campaign{{ID: 3, CompanyType: "Padaria", State: "SP", City: "Campinas", Kind: "AIprospection", StartedAt: time.Now()}},
		ActiveCount: 1,
		Limit:       2,
		ChartJSON:   chart,
	})
	require.NoError(t, err)

	body := w.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, body, "Padaria")
	assert.Contains(t, body, "Ana &lt;script&gt;")
	assert.Contains(t, body, `"leads":4`)
}

func TestRenderOutcomePages(t *testing.T) {
	for page, data := range Outcomes {
		t.Run(page, func(t *testing.T) {
			require.True(t, Has(page))
			w := httptest.NewRecorder()
			require.NoError(t, Render(w, http.StatusOK, page, data))
			assert.Contains(t, w.Body.String(), data.Title)
		})
	}
}

func TestRenderLoginWithStatus(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, Render(w, http.StatusUnauthorized, "login", LoginPage{Email: "a@b.c", Error: "invalid email or password"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid email or password")
}

func TestRenderUnknownPage(t *testing.T) {
	w := httptest.NewRecorder()
	assert.Error(t, Render(w, http.StatusOK, "nope", nil))
	assert.Equal(t, 0, w.Body.Len())
}

func TestChartJSONEmpty(t *testing.T) {
	js, err := ChartJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(js))
}

func TestStaticServesEmbeddedAssets(t *testing.T) {
	srv := http.StripPrefix("/static/", Static())
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
