package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mlakar/shramba/internal/auth"
	"github.com/mlakar/shramba/internal/cache"
	"github.com/mlakar/shramba/internal/db"
	"github.com/mlakar/shramba/internal/model"
	"github.com/mlakar/shramba/internal/store"
)

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	database := db.NewTestDB(t)
	authenticator := auth.New(database, cache.NewMemory())
	router := NewRouter(database, authenticator)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create admin user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	store.CreateUser(ctx, database, "admin", "admin@example.com", string(hash), model.RoleAdmin)

	// Get token.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password"})
	resp, err := http.Post(server.URL+"/v1/api/auth/token/", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("token request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("token request failed: %d", resp.StatusCode)
	}

	var tokenResp map[string]any
	json.NewDecoder(resp.Body).Decode(&tokenResp)
	token, _ := tokenResp["token"].(string)
	if token == "" {
		t.Fatal("empty token from auth endpoint")
	}

	return server, token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doJSON(t *testing.T, req *http.Request, wantStatus int, out any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d", req.Method, req.URL.Path, wantStatus, resp.StatusCode)
	}
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
}

func createLocation(t *testing.T, server *httptest.Server, token string, body map[string]any) model.Location {
	t.Helper()
	req, _ := authRequest("POST", server.URL+"/v1/api/locations/", token, body)
	var location model.Location
	doJSON(t, req, http.StatusCreated, &location)
	return location
}

func createItem(t *testing.T, server *httptest.Server, token string, body map[string]any) model.Item {
	t.Helper()
	req, _ := authRequest("POST", server.URL+"/v1/api/items/", token, body)
	var item model.Item
	doJSON(t, req, http.StatusCreated, &item)
	return item
}

func TestObtainTokenBadCredentials(t *testing.T) {
	server, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/v1/api/auth/token/", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{"username": "nobody", "password": "password"})
	resp, _ = http.Post(server.URL+"/v1/api/auth/token/", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown user, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAuthHeaderParsing(t *testing.T) {
	server, token := setupTestServer(t)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"bearer scheme", "Bearer " + token},
		{"lowercase scheme", "token " + token},
		{"no scheme", token},
		{"garbage token", "Token not-a-real-token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", server.URL+"/v1/api/items/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, _ := http.DefaultClient.Do(req)
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
		})
	}

	// The exact header still works.
	req, _ := authRequest("GET", server.URL+"/v1/api/items/", token, nil)
	doJSON(t, req, http.StatusOK, nil)
}

func TestRevokeThenUse(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/v1/api/auth/revoke/", token, nil)
	doJSON(t, req, http.StatusOK, nil)

	req, _ = authRequest("GET", server.URL+"/v1/api/items/", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after revoke, got %d", resp.StatusCode)
	}
}

func TestTokenInfo(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest("GET", server.URL+"/v1/api/auth/info/", token, nil)
	var info map[string]any
	doJSON(t, req, http.StatusOK, &info)

	if info["username"] != "admin" {
		t.Errorf("expected username admin, got %v", info["username"])
	}
	if info["role"] != model.RoleAdmin {
		t.Errorf("expected admin role, got %v", info["role"])
	}
	if info["expires_at"] == nil {
		t.Error("expected expires_at in token info")
	}
}

func TestLocationsAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	attic := createLocation(t, server, token, map[string]any{
		"name": "Attic", "room_type": model.RoomAttic,
	})
	box := createLocation(t, server, token, map[string]any{
		"name": "Winter Box", "parent_id": attic.ID, "is_box": true,
	})

	// List all.
	req, _ := authRequest("GET", server.URL+"/v1/api/locations/", token, nil)
	var locations []model.Location
	doJSON(t, req, http.StatusOK, &locations)
	if len(locations) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(locations))
	}

	// Filter by box.
	req, _ = authRequest("GET", server.URL+"/v1/api/locations/?is_box=true", token, nil)
	doJSON(t, req, http.StatusOK, &locations)
	if len(locations) != 1 || locations[0].ID != box.ID {
		t.Errorf("expected only the box in filtered list, got %v", locations)
	}

	// Children of attic.
	req, _ = authRequest("GET", server.URL+"/v1/api/locations/"+itoa(attic.ID)+"/children/", token, nil)
	doJSON(t, req, http.StatusOK, &locations)
	if len(locations) != 1 || locations[0].ID != box.ID {
		t.Errorf("expected box as child of attic, got %v", locations)
	}

	// Unknown room type is rejected with a field error.
	req, _ = authRequest("POST", server.URL+"/v1/api/locations/", token, map[string]any{
		"name": "Shed", "room_type": "shed",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown room type, got %d", resp.StatusCode)
	}
	var fieldErrs struct {
		Errors map[string]string `json:"errors"`
	}
	json.NewDecoder(resp.Body).Decode(&fieldErrs)
	resp.Body.Close()
	if fieldErrs.Errors["room_type"] == "" {
		t.Errorf("expected room_type field error, got %v", fieldErrs.Errors)
	}
}

func TestLocationReparentCycle(t *testing.T) {
	server, token := setupTestServer(t)

	room := createLocation(t, server, token, map[string]any{
		"name": "Office", "room_type": model.RoomOffice,
	})
	shelf := createLocation(t, server, token, map[string]any{
		"name": "Shelf", "parent_id": room.ID,
	})
	box := createLocation(t, server, token, map[string]any{
		"name": "Cable Box", "parent_id": shelf.ID, "is_box": true,
	})

	// Moving Office under Cable Box would create a cycle.
	req, _ := authRequest("PUT", server.URL+"/v1/api/locations/"+itoa(room.ID)+"/", token, map[string]any{
		"name": "Office", "room_type": model.RoomOffice, "parent_id": box.ID,
	})
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for cyclic reparent, got %d", resp.StatusCode)
	}

	// Self-parent is also a cycle.
	req, _ = authRequest("PUT", server.URL+"/v1/api/locations/"+itoa(room.ID)+"/", token, map[string]any{
		"name": "Office", "room_type": model.RoomOffice, "parent_id": room.ID,
	})
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for self parent, got %d", resp.StatusCode)
	}

	// Moving the box directly under the room is fine.
	req, _ = authRequest("PUT", server.URL+"/v1/api/locations/"+itoa(box.ID)+"/", token, map[string]any{
		"name": "Cable Box", "parent_id": room.ID, "is_box": true,
	})
	doJSON(t, req, http.StatusOK, nil)
}

func TestLocationDeleteRefusedWhenOccupied(t *testing.T) {
	server, token := setupTestServer(t)

	room := createLocation(t, server, token, map[string]any{
		"name": "Garage", "room_type": model.RoomGarage,
	})
	createLocation(t, server, token, map[string]any{
		"name": "Tool Box", "parent_id": room.ID, "is_box": true,
	})

	req, _ := authRequest("DELETE", server.URL+"/v1/api/locations/"+itoa(room.ID)+"/", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 deleting occupied location, got %d", resp.StatusCode)
	}
}

func TestItemsAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	kitchen := createLocation(t, server, token, map[string]any{
		"name": "Kitchen", "room_type": model.RoomKitchen,
	})
	pantry := createLocation(t, server, token, map[string]any{
		"name": "Pantry Box", "parent_id": kitchen.ID, "is_box": true,
	})

	item := createItem(t, server, token, map[string]any{
		"name": "Blender", "quantity": 1, "condition": model.ConditionGood,
		"location_id": kitchen.ID,
	})

	// Update a field without moving.
	req, _ := authRequest("PUT", server.URL+"/v1/api/items/"+itoa(item.ID)+"/", token, map[string]any{
		"name": "Blender", "quantity": 2, "condition": model.ConditionGood,
		"location_id": kitchen.ID,
	})
	doJSON(t, req, http.StatusOK, nil)

	// Move it, changing quantity at the same time.
	req, _ = authRequest("PUT", server.URL+"/v1/api/items/"+itoa(item.ID)+"/", token, map[string]any{
		"name": "Blender", "quantity": 3, "condition": model.ConditionGood,
		"location_id": pantry.ID,
	})
	doJSON(t, req, http.StatusOK, nil)

	// Delete it.
	req, _ = authRequest("DELETE", server.URL+"/v1/api/items/"+itoa(item.ID)+"/", token, nil)
	doJSON(t, req, http.StatusOK, nil)

	// The full history: created, updated, moved, deleted, each exactly once.
	req, _ = authRequest("GET", server.URL+"/v1/api/logs/?item="+itoa(item.ID), token, nil)
	var logs []model.ItemLog
	doJSON(t, req, http.StatusOK, &logs)
	if len(logs) != 4 {
		t.Fatalf("expected 4 log entries, got %d", len(logs))
	}

	counts := map[string]int{}
	for _, l := range logs {
		counts[l.Action]++
	}
	for _, action := range []string{model.ActionCreated, model.ActionUpdated, model.ActionMoved, model.ActionDeleted} {
		if counts[action] != 1 {
			t.Errorf("expected exactly one %s entry, got %d", action, counts[action])
		}
	}

	// A deleted item is gone from reads.
	req, _ = authRequest("GET", server.URL+"/v1/api/items/"+itoa(item.ID)+"/", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for deleted item, got %d", resp.StatusCode)
	}
}

func TestItemQuantityBounds(t *testing.T) {
	server, token := setupTestServer(t)

	room := createLocation(t, server, token, map[string]any{
		"name": "Bedroom", "room_type": model.RoomBedroom,
	})

	cases := []struct {
		quantity int
		status   int
	}{
		{0, http.StatusBadRequest},
		{-5, http.StatusBadRequest},
		{10001, http.StatusBadRequest},
		{1, http.StatusCreated},
		{10000, http.StatusCreated},
	}

	for _, tc := range cases {
		req, _ := authRequest("POST", server.URL+"/v1/api/items/", token, map[string]any{
			"name": "Socks", "quantity": tc.quantity, "condition": model.ConditionFair,
			"location_id": room.ID,
		})
		resp, _ := http.DefaultClient.Do(req)
		resp.Body.Close()
		if resp.StatusCode != tc.status {
			t.Errorf("quantity %d: expected %d, got %d", tc.quantity, tc.status, resp.StatusCode)
		}
	}
}

func TestItemNoLogWhenNothingChanged(t *testing.T) {
	server, token := setupTestServer(t)

	room := createLocation(t, server, token, map[string]any{
		"name": "Basement", "room_type": model.RoomBasement,
	})
	item := createItem(t, server, token, map[string]any{
		"name": "Heater", "quantity": 1, "condition": model.ConditionExcellent,
		"location_id": room.ID,
	})

	// PUT with identical values.
	req, _ := authRequest("PUT", server.URL+"/v1/api/items/"+itoa(item.ID)+"/", token, map[string]any{
		"name": "Heater", "quantity": 1, "condition": model.ConditionExcellent,
		"location_id": room.ID,
	})
	doJSON(t, req, http.StatusOK, nil)

	req, _ = authRequest("GET", server.URL+"/v1/api/logs/?item="+itoa(item.ID), token, nil)
	var logs []model.ItemLog
	doJSON(t, req, http.StatusOK, &logs)
	if len(logs) != 1 {
		t.Errorf("expected only the created entry, got %d entries", len(logs))
	}
}

func TestUsersAdminOnly(t *testing.T) {
	server, token := setupTestServer(t)

	// Create a regular user through the admin endpoint.
	req, _ := authRequest("POST", server.URL+"/v1/api/users/", token, map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "bobpassword", "role": model.RoleUser,
	})
	doJSON(t, req, http.StatusCreated, nil)

	// Get a token for the regular user.
	body, _ := json.Marshal(map[string]string{"username": "bob", "password": "bobpassword"})
	resp, _ := http.Post(server.URL+"/v1/api/auth/token/", "application/json", bytes.NewReader(body))
	var tokenResp map[string]any
	json.NewDecoder(resp.Body).Decode(&tokenResp)
	resp.Body.Close()
	bobToken, _ := tokenResp["token"].(string)
	if bobToken == "" {
		t.Fatal("no token for regular user")
	}

	// Regular users cannot manage users.
	req, _ = authRequest("GET", server.URL+"/v1/api/users/", bobToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", resp.StatusCode)
	}

	// But they can still use the inventory.
	req, _ = authRequest("GET", server.URL+"/v1/api/items/", bobToken, nil)
	doJSON(t, req, http.StatusOK, nil)
}

func TestUserCannotDeleteSelf(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest("GET", server.URL+"/v1/api/auth/info/", token, nil)
	var info map[string]any
	doJSON(t, req, http.StatusOK, &info)
	adminID := int64(info["user_id"].(float64))

	req, _ = authRequest("DELETE", server.URL+"/v1/api/users/"+itoa(adminID)+"/", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 deleting own account, got %d", resp.StatusCode)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
