package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	APIKey    string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("X-Admin-API-Key", c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

const settingsPath = "/api/admin/plugins/session-sharing"

func main() {
	var (
		baseURL = envOr("BRIDGE_ADMIN_URL", "http://localhost:8080")
		apiKey  = envOr("BRIDGE_ADMIN_KEY", "")
		out     = envOr("BRIDGE_OUT", "text")
	)

	root := &cobra.Command{
		Use:   "bridgectl",
		Short: "CLI admin del session bridge",
	}

	root.PersistentFlags().StringVar(&baseURL, "admin-api-url", baseURL, "URL base del servicio (env BRIDGE_ADMIN_URL)")
	root.PersistentFlags().StringVar(&apiKey, "admin-api-key", apiKey, "API key del Admin API (env BRIDGE_ADMIN_KEY)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}
	needKey := func(cmd *cobra.Command, args []string) error {
		cl.BaseURL, cl.APIKey, cl.OutFormat = baseURL, apiKey, out
		if apiKey == "" {
			return fmt.Errorf("falta API key (flag --admin-api-key o env BRIDGE_ADMIN_KEY)")
		}
		return nil
	}

	// ─── settings ───
	settingsCmd := &cobra.Command{
		Use:               "settings",
		Short:             "Settings calientes del bridge",
		PersistentPreRunE: needKey,
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Mostrar los settings efectivos (secret redactado)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", settingsPath, nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("get fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set key=value [key=value ...]",
		Short: "Guardar settings y recargar el snapshot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := map[string]string{}
			for _, a := range args {
				k, v, ok := strings.Cut(a, "=")
				if !ok {
					return fmt.Errorf("argumento inválido %q (se espera key=value)", a)
				}
				values[k] = v
			}
			b, _ := json.Marshal(values)
			status, body, err := cl.do("PUT", settingsPath, b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("set fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Recargar el snapshot desde el settings store",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", settingsPath+"/reload", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("reload fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	settingsCmd.AddCommand(getCmd, setCmd, reloadCmd)

	// ─── token sign: assertion HS256 de prueba ───
	var (
		signSecret string
		signClaims []string
	)
	signCmd := &cobra.Command{
		Use:   "sign",
		Short: "Firmar una assertion HS256 de prueba con el secret compartido",
		RunE: func(cmd *cobra.Command, args []string) error {
			if signSecret == "" {
				signSecret = os.Getenv("BRIDGE_SECRET")
			}
			if signSecret == "" {
				return fmt.Errorf("falta el secret (flag --secret o env BRIDGE_SECRET)")
			}
			claims := jwtv5.MapClaims{}
			for _, a := range signClaims {
				k, v, ok := strings.Cut(a, "=")
				if !ok {
					return fmt.Errorf("claim inválido %q (se espera key=value)", a)
				}
				claims[k] = v
			}
			token, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte(signSecret))
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	signCmd.Flags().StringVar(&signSecret, "secret", "", "Secret compartido (env BRIDGE_SECRET)")
	signCmd.Flags().StringArrayVar(&signClaims, "claim", nil, "Claim key=value (repetible)")

	tokenCmd := &cobra.Command{Use: "token", Short: "Utilidades de tokens"}
	tokenCmd.AddCommand(signCmd)

	root.AddCommand(settingsCmd, tokenCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
