package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/Inventario-kardex/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Inventario-kardex/internal/interfaces/http"
	"github.com/jhoicas/Inventario-kardex/pkg/logger"
)

// newTestApp arma la API completa sobre el almacenamiento en memoria.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	store.AddItem(entity.Item{ID: "item-a", SKU: "TOR-01", Name: "Tornillo"})
	store.AddItem(entity.Item{ID: "item-b", SKU: "TUE-02", Name: "Tuerca"})
	store.AddWarehouse(entity.Warehouse{ID: "wh-a", Name: "Principal"})
	store.AddWarehouse(entity.Warehouse{ID: "wh-b", Name: "Sucursal"})

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(logger.Nop())})
	apphttp.Router(app, apphttp.RouterDeps{
		AppName:        "kardex-test",
		Movements:      inventory.NewMovementService(store, nil, nil),
		Ledger:         inventory.NewLedgerService(store, inventory.LedgerConfig{}),
		Balances:       inventory.NewBalanceService(store, nil, nil),
		JWTSecret:      testJWTSecret,
		ExportPageSize: 500,
	})
	return app
}

// call lanza la petición con el rol indicado ("" = sin token) y devuelve la respuesta y su cuerpo.
func call(t *testing.T, app *fiber.App, method, path, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decodeMap(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m), string(raw))
	return m
}

// createDraft crea un borrador y devuelve su id.
func createDraft(t *testing.T, app *fiber.App, body map[string]any) string {
	t.Helper()
	resp, raw := call(t, app, http.MethodPost, "/api/movements", apphttp.RoleBodeguero, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	mov := decodeMap(t, raw)["movement"].(map[string]any)
	return mov["id"].(string)
}

func inbound(wh, item, qty, cost string) map[string]any {
	return map[string]any{
		"kind":                     "IN",
		"subkind":                  "compra",
		"destination_warehouse_id": wh,
		"lines":                    []map[string]any{{"item_id": item, "quantity": qty, "unit_cost": cost}},
	}
}

func outbound(wh, item, qty string) map[string]any {
	return map[string]any{
		"kind":                "OUT",
		"source_warehouse_id": wh,
		"lines":               []map[string]any{{"item_id": item, "quantity": qty}},
	}
}

func publish(t *testing.T, app *fiber.App, id string) {
	t.Helper()
	resp, raw := call(t, app, http.MethodPost, "/api/movements/"+id+"/publish", apphttp.RoleBodeguero, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}

func TestHealth(t *testing.T) {
	resp, raw := call(t, newTestApp(t), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeMap(t, raw)["status"])
}

func TestMovimientos_FlujoCompletoYKardex(t *testing.T) {
	app := newTestApp(t)

	in := createDraft(t, app, inbound("wh-a", "item-a", "10", "5"))
	publish(t, app, in)
	out := createDraft(t, app, outbound("wh-a", "item-a", "4"))
	publish(t, app, out)

	resp, raw := call(t, app, http.MethodGet, "/api/movements/"+out, apphttp.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PUBLISHED", decodeMap(t, raw)["state"])

	resp, raw = call(t, app, http.MethodGet, "/api/items/item-a/kardex?warehouse_id=wh-a", apphttp.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	ledger := decodeMap(t, raw)
	assert.Len(t, ledger["rows"], 2)
	summary := ledger["summary"].(map[string]any)
	assert.Equal(t, "6", summary["final_quantity"])
	assert.Equal(t, "30", summary["final_value"])
	pagination := ledger["pagination"].(map[string]any)
	assert.EqualValues(t, 2, pagination["total_rows"])
}

func TestMovimientos_StockInsuficienteRetorna422(t *testing.T) {
	app := newTestApp(t)
	publish(t, app, createDraft(t, app, inbound("wh-a", "item-a", "2", "5")))

	id := createDraft(t, app, outbound("wh-a", "item-a", "5"))
	resp, raw := call(t, app, http.MethodPost, "/api/movements/"+id+"/publish", apphttp.RoleBodeguero, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeMap(t, raw)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, "5", details["requested"])
	assert.Equal(t, "2", details["available"])

	// allow_negative explícito
	resp, raw = call(t, app, http.MethodPost, "/api/movements/"+id+"/publish", apphttp.RoleBodeguero, map[string]any{"allow_negative": true})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}

func TestMovimientos_BorradorConAdvertencias(t *testing.T) {
	app := newTestApp(t)
	resp, raw := call(t, app, http.MethodPost, "/api/movements", apphttp.RoleBodeguero, outbound("wh-a", "item-a", "3"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	assert.Len(t, decodeMap(t, raw)["warnings"], 1, "el borrador se crea pero advierte falta de stock")
}

func TestMovimientos_EstadosInvalidosRetornan409(t *testing.T) {
	app := newTestApp(t)
	id := createDraft(t, app, inbound("wh-a", "item-a", "1", "1"))

	resp, raw := call(t, app, http.MethodPost, "/api/movements/"+id+"/void", apphttp.RoleAdmin, map[string]any{"reason": "error"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NOT_PUBLISHED", decodeMap(t, raw)["code"])

	publish(t, app, id)
	resp, raw = call(t, app, http.MethodPost, "/api/movements/"+id+"/publish", apphttp.RoleBodeguero, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NOT_DRAFT", decodeMap(t, raw)["code"])

	resp, raw = call(t, app, http.MethodPost, "/api/movements/"+id+"/void", apphttp.RoleAdmin, map[string]any{"reason": "digitado dos veces"})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "VOIDED", decodeMap(t, raw)["state"])
}

func TestMovimientos_ConflictoDeVersion(t *testing.T) {
	app := newTestApp(t)
	id := createDraft(t, app, inbound("wh-a", "item-a", "1", "1"))

	resp, raw := call(t, app, http.MethodPut, "/api/movements/"+id, apphttp.RoleBodeguero, map[string]any{"version": 1, "reference": "OC-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = call(t, app, http.MethodPut, "/api/movements/"+id, apphttp.RoleBodeguero, map[string]any{"version": 1, "reference": "OC-2"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "VERSION_CONFLICT", decodeMap(t, raw)["code"])
}

func TestMovimientos_ValidacionYNoEncontrado(t *testing.T) {
	app := newTestApp(t)

	resp, raw := call(t, app, http.MethodPost, "/api/movements", apphttp.RoleBodeguero, map[string]any{"kind": "XX"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeMap(t, raw)["code"])

	resp, raw = call(t, app, http.MethodGet, "/api/movements/no-existe", apphttp.RoleAuditor, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeMap(t, raw)["code"])

	resp, _ = call(t, app, http.MethodDelete, "/api/movements/no-existe", apphttp.RoleBodeguero, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMovimientos_AjusteNoSoportado(t *testing.T) {
	app := newTestApp(t)
	id := createDraft(t, app, map[string]any{
		"kind":                     "ADJUSTMENT",
		"destination_warehouse_id": "wh-a",
		"lines":                    []map[string]any{{"item_id": "item-a", "quantity": "1", "unit_cost": "1"}},
	})
	resp, raw := call(t, app, http.MethodPost, "/api/movements/"+id+"/publish", apphttp.RoleAdmin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "UNSUPPORTED_KIND", decodeMap(t, raw)["code"])
}

func TestMovimientos_Permisos(t *testing.T) {
	app := newTestApp(t)

	resp, _ := call(t, app, http.MethodPost, "/api/movements", apphttp.RoleAuditor, inbound("wh-a", "item-a", "1", "1"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	id := createDraft(t, app, inbound("wh-a", "item-a", "1", "1"))
	publish(t, app, id)
	resp, _ = call(t, app, http.MethodPost, "/api/movements/"+id+"/void", apphttp.RoleBodeguero, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "solo admin anula")

	resp, _ = call(t, app, http.MethodGet, "/api/items/item-a/kardex", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMovimientos_EliminarBorrador(t *testing.T) {
	app := newTestApp(t)
	id := createDraft(t, app, inbound("wh-a", "item-a", "1", "1"))

	resp, _ := call(t, app, http.MethodDelete, "/api/movements/"+id, apphttp.RoleBodeguero, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/movements/"+id, apphttp.RoleBodeguero, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestKardex_Formatos(t *testing.T) {
	app := newTestApp(t)
	publish(t, app, createDraft(t, app, inbound("wh-a", "item-a", "10", "5")))

	resp, raw := call(t, app, http.MethodGet, "/api/items/item-a/kardex?warehouse_id=wh-a&format=csv", apphttp.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "windows-1252")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "kardex-item-a.csv")
	assert.Equal(t, 3, strings.Count(string(raw), "\r\n"), "cabecera, fila y totales")

	resp, raw = call(t, app, http.MethodGet, "/api/items/item-a/kardex?format=pdf&date_from=2000-01-01", apphttp.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	resp, _ = call(t, app, http.MethodGet, "/api/items/item-a/kardex?format=xml", apphttp.RoleAuditor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestKardex_Errores(t *testing.T) {
	app := newTestApp(t)

	resp, raw := call(t, app, http.MethodGet, "/api/items/no-existe/kardex", apphttp.RoleAuditor, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "ITEM_NOT_FOUND", decodeMap(t, raw)["code"])

	resp, _ = call(t, app, http.MethodGet, "/api/items/item-a/kardex?date_from=ayer", apphttp.RoleAuditor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/items/item-a/kardex?date_from=2026-02-01&date_to=2026-01-01", apphttp.RoleAuditor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSaldos_AsignacionUmbralesYCostos(t *testing.T) {
	app := newTestApp(t)

	resp, raw := call(t, app, http.MethodPost, "/api/warehouses/wh-b/items", apphttp.RoleBodeguero, map[string]any{
		"item_id": "item-b", "initial_quantity": "3", "initial_cost": "2", "min_threshold": "5",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	assert.Equal(t, "6", decodeMap(t, raw)["total_value"])

	resp, raw = call(t, app, http.MethodPost, "/api/warehouses/wh-b/items", apphttp.RoleBodeguero, map[string]any{"item_id": "item-b"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decodeMap(t, raw)["code"])

	resp, raw = call(t, app, http.MethodGet, "/api/warehouses/wh-b/average-costs?item_ids=item-b,item-a", apphttp.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	costs := decodeMap(t, raw)
	b := costs["item-b"].(map[string]any)
	assert.Equal(t, "2", b["average_cost"])
	assert.Equal(t, true, b["below_minimum"])
	a := costs["item-a"].(map[string]any)
	assert.Equal(t, "0", a["quantity_on_hand"], "sin saldo devuelve ceros")

	resp, _ = call(t, app, http.MethodGet, "/api/warehouses/wh-b/average-costs", apphttp.RoleAuditor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = call(t, app, http.MethodPatch, "/api/warehouses/wh-b/items/item-b", apphttp.RoleBodeguero, map[string]any{
		"min_threshold": "5", "max_threshold": "1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))

	resp, raw = call(t, app, http.MethodPatch, "/api/warehouses/wh-b/items/item-b", apphttp.RoleBodeguero, map[string]any{
		"min_threshold": "1", "max_threshold": "10",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, _ = call(t, app, http.MethodDelete, "/api/warehouses/wh-b/items/item-b", apphttp.RoleAdmin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = call(t, app, http.MethodDelete, "/api/warehouses/wh-b/items/item-b", apphttp.RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
