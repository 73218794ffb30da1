//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func freshEmail() string {
	return fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
}

func TestRegister(t *testing.T) {
	email := freshEmail()

	resp := doPost(t, "/api/auth/register", map[string]string{
		"name":     "Integration Tester",
		"email":    email,
		"password": "hunter2pass",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	u := decodeJSON[userResponse](t, resp)
	if u.Email != email {
		t.Errorf("email: got %q, want %q", u.Email, email)
	}
	if u.Verified {
		t.Error("fresh account should not be verified")
	}
	if len(u.ReferralCode) != 8 {
		t.Errorf("referral code %q: want 8 characters", u.ReferralCode)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	email := freshEmail()
	body := map[string]string{
		"name":     "Integration Tester",
		"email":    email,
		"password": "hunter2pass",
	}

	first := doPost(t, "/api/auth/register", body)
	first.Body.Close()
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", first.StatusCode)
	}

	second := doPost(t, "/api/auth/register", body)
	defer second.Body.Close()
	if second.StatusCode != http.StatusConflict {
		t.Fatalf("second register: expected 409, got %d", second.StatusCode)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	resp := doPost(t, "/api/auth/register", map[string]string{
		"name":     "Integration Tester",
		"email":    freshEmail(),
		"password": "short",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	email := freshEmail()

	created := doPost(t, "/api/auth/register", map[string]string{
		"name":     "Integration Tester",
		"email":    email,
		"password": "hunter2pass",
	})
	created.Body.Close()
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", created.StatusCode)
	}

	resp := doPost(t, "/api/auth/verify-otp", map[string]string{
		"email": email,
		"code":  "000000",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLogin_Unverified(t *testing.T) {
	email := freshEmail()

	created := doPost(t, "/api/auth/register", map[string]string{
		"name":     "Integration Tester",
		"email":    email,
		"password": "hunter2pass",
	})
	created.Body.Close()
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", created.StatusCode)
	}

	resp := doPost(t, "/api/auth/login", map[string]string{
		"email":    email,
		"password": "hunter2pass",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	resp := doPost(t, "/api/auth/login", map[string]string{
		"email":    adminEmail,
		"password": "not-the-password",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestProfile(t *testing.T) {
	token := loginAdmin(t)

	resp := doGetWithAuth(t, "/api/profile", token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	u := decodeJSON[userResponse](t, resp)
	if u.Email != adminEmail {
		t.Errorf("email: got %q, want %q", u.Email, adminEmail)
	}
	if !u.Verified {
		t.Error("seeded admin should be verified")
	}
}

func TestProfile_NoToken(t *testing.T) {
	resp := doGet(t, "/api/profile")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLogout(t *testing.T) {
	token := loginAdmin(t)

	out := doPostWithAuth(t, "/api/auth/logout", map[string]string{}, token)
	out.Body.Close()
	if out.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", out.StatusCode)
	}

	// The token is dead afterwards.
	resp := doGetWithAuth(t, "/api/profile", token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestWallet(t *testing.T) {
	token := loginAdmin(t)

	resp := doGetWithAuth(t, "/api/wallet", token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	w := decodeJSON[struct {
		Balance float64 `json:"balance"`
	}](t, resp)
	if w.Balance < 0 {
		t.Errorf("balance: got %v, want >= 0", w.Balance)
	}
}

func TestAdminRoute_NonAdmin(t *testing.T) {
	email := freshEmail()

	created := doPost(t, "/api/auth/register", map[string]string{
		"name":     "Integration Tester",
		"email":    email,
		"password": "hunter2pass",
	})
	created.Body.Close()

	// An unverified account cannot even authenticate against admin routes.
	resp := doGet(t, "/api/admin/users")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAdminRoute_Admin(t *testing.T) {
	token := loginAdmin(t)

	resp := doGetWithAuth(t, "/api/admin/users", token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
