package bootstrap_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/verifactu-api/internal/bootstrap"
	"github.com/jhoicas/verifactu-api/pkg/config"
	"github.com/jhoicas/verifactu-api/pkg/verifactu"
)

func TestBuild_SinCertificadoNiBaseDeDatos(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	svc, err := bootstrap.Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer svc.Close()

	assert.NotNil(t, svc.Orchestrator)
	assert.Nil(t, svc.Submissions)
	assert.Equal(t, verifactu.URLSandbox, svc.Transport.Endpoint())
	assert.Equal(t, verifactu.EnvironmentSandbox, svc.Orchestrator.Environment())
}

func TestBuild_CertificadoInexistente(t *testing.T) {
	v := viper.New()
	v.Set("VERIFACTU_CERT_PATH", "/no/existe/cert.p12")
	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	_, err = bootstrap.Build(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
