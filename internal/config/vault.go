package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/vault/api"
)

// VaultSource resolves individual secret values from a HashiCorp Vault KV v2
// mount. It is an optional credential source for fields that config.yaml
// would otherwise carry in plaintext (MySQL DSN, ClickHouse password, MSS
// app key, ...).
type VaultSource struct {
	client *api.Client
	mount  string
}

// NewVaultSource creates a VaultSource against address, authenticated with token.
func NewVaultSource(address, token, mount string) (*VaultSource, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(token)

	if mount == "" {
		mount = "secret"
	}

	return &VaultSource{client: client, mount: mount}, nil
}

// Get retrieves a single secret value. key is "path/to/secret" or
// "path/to/secret:field" (field defaults to "value").
func (v *VaultSource) Get(_ context.Context, key string) (string, error) {
	path := key
	field := "value"

	if strings.Contains(key, ":") {
		parts := strings.SplitN(key, ":", 2)
		path = parts[0]
		field = parts[1]
	}

	vaultPath := fmt.Sprintf("%s/data/%s", v.mount, path)

	secret, err := v.client.Logical().Read(vaultPath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret not found: %s", key)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid secret data format for %s", key)
	}

	val, ok := data[field]
	if !ok {
		return "", fmt.Errorf("field %s not found in secret %s", field, path)
	}

	return fmt.Sprintf("%v", val), nil
}

// ApplyVaultOverrides fills credential fields on cfg from Vault when
// cfg.Vault.Enabled, overriding whatever is set in the YAML/env layer.
// Paths are fixed by convention: binlogsync/mysql, binlogsync/clickhouse,
// binlogsync/redis, binlogsync/mss.
func ApplyVaultOverrides(ctx context.Context, cfg *Config) error {
	if !cfg.Vault.Enabled {
		return nil
	}
	src, err := NewVaultSource(cfg.Vault.Address, cfg.Vault.Token, cfg.Vault.Mount)
	if err != nil {
		return err
	}

	if dsn, err := src.Get(ctx, "binlogsync/mysql:dsn"); err == nil {
		cfg.MySQL.DSN = dsn
	}
	if pw, err := src.Get(ctx, "binlogsync/clickhouse:password"); err == nil {
		cfg.ClickHouse.Password = pw
	}
	if pw, err := src.Get(ctx, "binlogsync/redis:password"); err == nil {
		cfg.Redis.Password = pw
	}
	if key, err := src.Get(ctx, "binlogsync/mss:app_key"); err == nil {
		cfg.MSS.AppKey = key
	}
	return nil
}
