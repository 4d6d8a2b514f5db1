package command

import (
	"testing"
)

func TestApp_CommandTree(t *testing.T) {
	app := App()
	if app.Name != "sasmint-cli" {
		t.Errorf("Name = %q", app.Name)
	}

	want := []string{"connect", "disconnect", "device", "token", "apikey", "system", "config"}
	for _, name := range want {
		if app.Command(name) == nil {
			t.Errorf("command %q missing", name)
		}
	}
}

func TestGlobalFlags_Defaults(t *testing.T) {
	srv := newMockServer()
	defer srv.Close()

	c := testContext(srv, nil)
	flags := ParseGlobalFlags(c)
	if flags.Server != srv.URL {
		t.Errorf("Server = %q", flags.Server)
	}
	if flags.Output != "table" {
		t.Errorf("Output = %q", flags.Output)
	}
	if flags.Wide || flags.Verbose {
		t.Error("boolean flags default to true")
	}
}

func TestEnsureConnected_BuildsClient(t *testing.T) {
	srv := newMockServer()
	defer srv.Close()

	c := testContext(srv, nil)
	client, err := EnsureConnected(c)
	if err != nil {
		t.Fatalf("EnsureConnected() error = %v", err)
	}
	if client.BaseURL() != srv.URL {
		t.Errorf("BaseURL = %q, want %q", client.BaseURL(), srv.URL)
	}
}
