package m3

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Endpoint names as registered in the configuration broker.
const (
	endpointAnnosaurus   = "annosaurus"
	endpointVampireSquid = "vampire-squid"
	endpointVarsKBServer = "vars-kb-server"
	endpointVarsUserSvr  = "vars-user-server"
	endpointSkimmer      = "skimmer"
	endpointBeholder     = "beholder"
)

// Session holds the authenticated service clients for one login. It is
// constructed after authentication and handed to every component that talks
// to the services; it dies with the login.
type Session struct {
	Username string

	Annosaurus   *AnnosaurusClient
	VampireSquid *VampireSquidClient
	KB           *KBClient
	Users        *UsersClient
	Skimmer      *SkimmerClient
	Beholder     *BeholderClient

	// Session-scoped vocabulary caches
	vocabMu  sync.Mutex
	concepts []string
	parts    []string
	users    []User
}

// NewSession logs in to the configuration broker, discovers the service
// endpoints, and builds authenticated clients for them.
func NewSession(ctx context.Context, razielURL, username, password string) (*Session, error) {
	token, err := RazielAuthenticate(ctx, razielURL, username, password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	endpoints, err := RazielEndpoints(ctx, razielURL, token)
	if err != nil {
		return nil, fmt.Errorf("endpoint discovery failed: %w", err)
	}

	byName := make(map[string]Endpoint, len(endpoints))
	for _, e := range endpoints {
		byName[e.Name] = e
	}

	required := []string{endpointAnnosaurus, endpointVampireSquid, endpointVarsKBServer, endpointVarsUserSvr, endpointSkimmer}
	for _, name := range required {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("configuration broker did not register %q", name)
		}
	}

	s := &Session{
		Username:     username,
		Annosaurus:   NewAnnosaurusClient(byName[endpointAnnosaurus].URL, byName[endpointAnnosaurus].Secret),
		VampireSquid: NewVampireSquidClient(byName[endpointVampireSquid].URL),
		KB:           NewKBClient(byName[endpointVarsKBServer].URL),
		Users:        NewUsersClient(byName[endpointVarsUserSvr].URL),
		Skimmer:      NewSkimmerClient(byName[endpointSkimmer].URL),
	}

	// Beholder is optional; frame capture degrades gracefully without it
	if e, ok := byName[endpointBeholder]; ok {
		s.Beholder = NewBeholderClient(e.URL, e.Secret)
	} else {
		log.Printf("[M3] No beholder endpoint registered, frame capture disabled")
	}

	// Establish the annotation service token up front so the first edit
	// does not pay the auth round trip
	if err := s.Annosaurus.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("annotation service auth failed: %w", err)
	}

	return s, nil
}

// Concepts returns the knowledge base's concept names, cached per session.
func (s *Session) Concepts(ctx context.Context) ([]string, error) {
	s.vocabMu.Lock()
	defer s.vocabMu.Unlock()
	if s.concepts == nil {
		concepts, err := s.KB.GetConcepts(ctx)
		if err != nil {
			return nil, err
		}
		s.concepts = concepts
	}
	return s.concepts, nil
}

// Parts returns the knowledge base's part names, cached per session.
func (s *Session) Parts(ctx context.Context) ([]string, error) {
	s.vocabMu.Lock()
	defer s.vocabMu.Unlock()
	if s.parts == nil {
		parts, err := s.KB.GetParts(ctx)
		if err != nil {
			return nil, err
		}
		s.parts = parts
	}
	return s.parts, nil
}

// AllUsers returns the user directory, cached per session.
func (s *Session) AllUsers(ctx context.Context) ([]User, error) {
	s.vocabMu.Lock()
	defer s.vocabMu.Unlock()
	if s.users == nil {
		users, err := s.Users.GetAllUsers(ctx)
		if err != nil {
			return nil, err
		}
		s.users = users
	}
	return s.users, nil
}
