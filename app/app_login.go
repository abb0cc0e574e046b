package app

import (
	"fmt"
	"log"

	"gridview/app/m3"
	"gridview/app/mosaic"
	"gridview/app/settings"
)

// LoginResult tells the frontend who is logged in and what the session can do.
type LoginResult struct {
	Username       string `json:"username"`
	CaptureEnabled bool   `json:"captureEnabled"`
}

// Login authenticates against the configuration broker, discovers the M3
// service endpoints, and builds the session every later operation runs
// through.
func (a *App) Login(username, password string) (*LoginResult, error) {
	currentSettings := settings.GetEffectiveSettings()
	if currentSettings.RazielURL == "" {
		return nil, fmt.Errorf("no server URL configured, set it in Settings first")
	}

	session, err := m3.NewSession(a.ctx, currentSettings.RazielURL, username, password)
	if err != nil {
		return nil, err
	}

	a.sessionMu.Lock()
	a.session = session
	a.sessionMu.Unlock()

	poolSize := currentSettings.WorkerPoolSize
	a.mosaicMu.Lock()
	a.resolver = mosaic.NewResolver(session.VampireSquid, poolSize)
	a.materializer = mosaic.NewMaterializer(a.resolver, a.imageSource(session), session.Annosaurus, poolSize)
	a.index = nil
	a.tables = nil
	a.mosaicMu.Unlock()

	// Remember the username for the next login dialog
	currentSettings.LastUsername = username
	svc := settings.NewSettingsService()
	if err := svc.SaveSettings(currentSettings); err != nil {
		log.Printf("[APP] Failed to persist last username: %v", err)
	}

	log.Printf("[APP] Logged in as %s", username)
	return &LoginResult{
		Username:       username,
		CaptureEnabled: session.Beholder != nil,
	}, nil
}

// Logout saves outstanding edits and tears the session down.
func (a *App) Logout() error {
	if err := a.SaveChanges(); err != nil {
		return err
	}
	a.CancelPopulate()

	a.sessionMu.Lock()
	a.session = nil
	a.sessionMu.Unlock()

	a.mosaicMu.Lock()
	a.resolver = nil
	a.materializer = nil
	a.index = nil
	a.tables = nil
	a.header = nil
	a.records = nil
	a.mosaicMu.Unlock()

	log.Printf("[APP] Logged out")
	return nil
}

// LastUsername returns the username from the previous session for the login
// dialog.
func (a *App) LastUsername() string {
	return settings.GetEffectiveSettings().LastUsername
}

// GetConcepts returns the knowledge base's concept names for autocomplete.
func (a *App) GetConcepts() ([]string, error) {
	session, err := a.currentSession()
	if err != nil {
		return nil, err
	}
	return session.Concepts(a.ctx)
}

// GetParts returns the knowledge base's part names for autocomplete.
func (a *App) GetParts() ([]string, error) {
	session, err := a.currentSession()
	if err != nil {
		return nil, err
	}
	return session.Parts(a.ctx)
}

// GetObservers returns the known usernames for the query form.
func (a *App) GetObservers() ([]string, error) {
	session, err := a.currentSession()
	if err != nil {
		return nil, err
	}
	users, err := session.AllUsers(a.ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names, nil
}

// GetVideoSequenceNames lists the catalog's sequence names for the query form.
func (a *App) GetVideoSequenceNames() ([]string, error) {
	session, err := a.currentSession()
	if err != nil {
		return nil, err
	}
	return session.VampireSquid.GetVideoSequenceNames(a.ctx)
}
