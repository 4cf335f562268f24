package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/sessionbridge/internal/metrics"
	"github.com/dropDatabas3/sessionbridge/internal/settings"
)

// Verifier intercambia el token opaco por una assertion firmada y la
// verifica contra el secret compartido. Una llamada saliente por invocación;
// no muta estado local y no reintenta.
type Verifier struct {
	client *http.Client
}

func NewVerifier(client *http.Client) *Verifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Verifier{client: client}
}

type exchangeRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type exchangeResponse struct {
	Token string `json:"token"`
}

// ExchangeAndVerify hace el POST de intercambio y verifica la firma de la
// assertion retornada. Retorna las claims verificadas.
func (v *Verifier) ExchangeAndVerify(ctx context.Context, s settings.Settings, rawToken string) (map[string]any, error) {
	body, _ := json.Marshal(exchangeRequest{RefreshToken: rawToken})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.ExchangeTokenEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := v.client.Do(req)
	metrics.ExchangeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: endpoint returned status %d", ErrExchange, resp.StatusCode)
	}

	var er exchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrExchange, err)
	}

	return verifyAssertion(er.Token, s.Secret)
}

// verifyAssertion valida firma HS256 (secret compartido) y vigencia.
// Cualquier falla (formato, firma, exp, algoritmo) colapsa a ErrVerification.
func verifyAssertion(assertion, secret string) (map[string]any, error) {
	tok, err := jwtv5.Parse(assertion,
		func(t *jwtv5.Token) (any, error) { return []byte(secret), nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
	)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrVerification)
	}

	out := make(map[string]any, len(claims))
	for k, val := range claims {
		out[k] = val
	}
	return out, nil
}
