package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"legalthings.one/internal/iam"
	"legalthings.one/internal/iam/remote"
	"legalthings.one/internal/obs"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	base := os.Getenv("IAM_URL")
	if base == "" {
		base = "http://localhost:3000"
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	client, err := remote.New(base)
	if err != nil {
		log.Fatalf("iam client for %s: %v", base, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	party := map[string]any{
		"email": fmt.Sprintf("smoke-%d@example.com", rand.Int()),
	}
	created, err := client.CreateOneTimeSession(ctx, party, "smoke", nil)
	if err != nil {
		log.Fatalf("create one-time session: %v", err)
	}
	if created.ID == "" {
		log.Fatal("one-time session came back without an id")
	}

	sess, err := iam.BindSession(ctx, client, created.ID)
	if err != nil {
		log.Fatalf("bind session %s: %v", created.ID, err)
	}
	if sess == nil {
		log.Fatalf("session %s vanished right after creation", created.ID)
	}
	if sess.User == nil {
		log.Fatal("bound session has no user")
	}

	if _, err := iam.BindSession(ctx, client, "does-not-exist"); err != nil {
		log.Fatalf("binding an unknown session must not fail: %v", err)
	}

	// Access decision sanity against a locally constructed team.
	org := &iam.Organization{ID: "smoke-org", Type: iam.OrgSecondary}
	team, err := iam.NewTeam("smoke", org)
	if err != nil {
		log.Fatalf("new team: %v", err)
	}
	insider := &iam.User{ID: "smoke-user", Organization: org}
	if !insider.MayModify(team, "") {
		log.Fatal("organization member lost write access to its own team")
	}
	if sess.User.IsAnonymous() && sess.User.MayAccess(team, "") {
		log.Fatal("anonymous user can read a secondary-organization team")
	}

	fmt.Printf("iam smoke test passed: session=%s\n", sess.ID)
}
