// Command smoke drives a full role-administration round trip against a
// running server: initialize, login, create, rename, delete, verify. It
// exits non-zero on the first mismatch.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"meshstudio.org/internal/auth"
	"meshstudio.org/internal/client"
)

func main() {
	baseURL := os.Getenv("MESHSTUDIO_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	c, err := client.New(baseURL)
	if err != nil {
		log.Fatalf("client: %v", err)
	}

	ctx, cancel := client.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msg, err := c.Initialize(ctx)
	if err != nil {
		log.Fatalf("initialize: %v", err)
	}
	log.Printf("initialize: %s", msg)

	if err := c.Login(ctx, "admin", "123456"); err != nil {
		log.Fatalf("login: %v", err)
	}

	state, err := c.State(ctx)
	if err != nil {
		log.Fatalf("session state: %v", err)
	}
	if !state.Authenticated || state.Menu != "authenticated" {
		log.Fatalf("unexpected session state: %+v", state)
	}

	name := fmt.Sprintf("Smoke %d", time.Now().Unix())
	role, err := c.AddRole(ctx, name, []string{auth.AuthoritySaveScene, auth.AuthorityListScene})
	if err != nil {
		log.Fatalf("add role: %v", err)
	}

	// A duplicate must be refused with the protocol message.
	if _, err := c.AddRole(ctx, name, nil); err == nil {
		log.Fatalf("duplicate role %q was accepted", name)
	}

	renamed := name + " (renamed)"
	if err := c.EditRole(ctx, role.ID, renamed, []string{auth.AuthorityListScene}); err != nil {
		log.Fatalf("edit role: %v", err)
	}

	roles, err := c.Roles(ctx, renamed)
	if err != nil {
		log.Fatalf("list roles: %v", err)
	}
	if len(roles) != 1 || roles[0].ID != role.ID {
		log.Fatalf("renamed role not listed: %+v", roles)
	}

	if err := c.DeleteRole(ctx, role.ID); err != nil {
		log.Fatalf("delete role: %v", err)
	}

	// Soft deletion frees the name.
	revived, err := c.AddRole(ctx, renamed, nil)
	if err != nil {
		log.Fatalf("re-add after delete: %v", err)
	}
	if err := c.DeleteRole(ctx, revived.ID); err != nil {
		log.Fatalf("cleanup: %v", err)
	}

	if err := c.Logout(ctx); err != nil {
		log.Fatalf("logout: %v", err)
	}

	fmt.Printf("✅ smoke test passed against %s (role=%s)\n", baseURL, role.ID)
}
