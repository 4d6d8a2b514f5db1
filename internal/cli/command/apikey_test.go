package command

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestAPIKeyList(t *testing.T) {
	srv := newMockServer()
	defer srv.Close()

	srv.handle("/admin/v1/keys", func(w http.ResponseWriter, r *http.Request) {
		envelopeResponse(w, http.StatusOK, map[string]any{
			"keys": []apikeyInfo{{
				KeyID: "smak-01test",
				Name:  "ci",
				Role:  "issuer",
			}},
		})
	})

	c := testContext(srv, nil)
	if err := apikeyList(c); err != nil {
		t.Fatalf("apikeyList() error = %v", err)
	}
}

func TestAPIKeyCreate(t *testing.T) {
	srv := newMockServer()
	defer srv.Close()

	var gotBody map[string]string
	srv.handle("/admin/v1/keys", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		envelopeResponse(w, http.StatusCreated, map[string]string{
			"key_id": "smak-01test",
			"secret": "smas_onetime",
			"name":   gotBody["name"],
			"role":   gotBody["role"],
		})
	})

	flags := []cli.Flag{
		&cli.StringFlag{Name: "name"},
		&cli.StringFlag{Name: "role"},
	}
	c := testContext(srv, flags, "--name", "ci", "--role", "issuer")
	if err := apikeyCreate(c); err != nil {
		t.Fatalf("apikeyCreate() error = %v", err)
	}
	if gotBody["name"] != "ci" || gotBody["role"] != "issuer" {
		t.Errorf("request body = %v", gotBody)
	}
}

func TestAPIKeyDisable_Force(t *testing.T) {
	srv := newMockServer()
	defer srv.Close()

	var gotBody map[string]bool
	srv.handle("/admin/v1/keys/smak-01test/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		envelopeResponse(w, http.StatusOK, nil)
	})

	forceFlag := &cli.BoolFlag{Name: "force"}
	c := testContext(srv, []cli.Flag{forceFlag}, "--force", "smak-01test")
	if err := apikeySetDisabled(true)(c); err != nil {
		t.Fatalf("disable error = %v", err)
	}
	if !gotBody["disabled"] {
		t.Error("disabled flag not sent")
	}
}

func TestAPIKeyDisable_MissingArg(t *testing.T) {
	srv := newMockServer()
	defer srv.Close()

	c := testContext(srv, nil)
	if err := apikeySetDisabled(true)(c); err == nil {
		t.Fatal("expected error for missing key ID")
	}
}
