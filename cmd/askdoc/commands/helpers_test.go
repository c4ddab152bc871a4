package commands

import (
	"os"
	"testing"
)

func TestListenAddress_EnvAppliesWhenFlagsUnset(t *testing.T) {
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9090")

	host, port := listenAddress(false, "127.0.0.1", false, 8080)
	if host != "0.0.0.0" {
		t.Errorf("host: got %q, want %q", host, "0.0.0.0")
	}
	if port != 9090 {
		t.Errorf("port: got %d, want %d", port, 9090)
	}
}

func TestListenAddress_FlagsWinOverEnv(t *testing.T) {
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9090")

	host, port := listenAddress(true, "10.1.2.3", true, 7070)
	if host != "10.1.2.3" {
		t.Errorf("host: got %q, want %q", host, "10.1.2.3")
	}
	if port != 7070 {
		t.Errorf("port: got %d, want %d", port, 7070)
	}
}

func TestListenAddress_DefaultsWithoutEnv(t *testing.T) {
	for _, k := range []string{"SERVER_HOST", "SERVER_PORT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	host, port := listenAddress(false, "127.0.0.1", false, 8080)
	if host != "127.0.0.1" {
		t.Errorf("host: got %q, want %q", host, "127.0.0.1")
	}
	if port != 8080 {
		t.Errorf("port: got %d, want %d", port, 8080)
	}
}

func TestListenAddress_UnparseablePortFallsBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")

	_, port := listenAddress(false, "127.0.0.1", false, 8080)
	if port != 8080 {
		t.Errorf("port: got %d, want fallback %d", port, 8080)
	}
}
