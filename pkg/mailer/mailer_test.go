package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/jiu-academy-api/pkg/config"
)

func TestNewWithoutHostLogs(t *testing.T) {
	m := New(config.SMTPConfig{}, nil)
	_, ok := m.(*LogMailer)
	require.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@b.c", Subject: "hi"}))
}

func TestSMTPMailerSend(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	m := &SMTPMailer{
		cfg:    config.SMTPConfig{Host: "smtp.local", Port: 2525, From: "Jiu Academy <no-reply@jiu.local>"},
		logger: zap.NewNop(),
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotBody = addr, from, to, msg
			assert.Nil(t, a)
			return nil
		},
	}

	err := m.Send(context.Background(), Message{To: "aluno@jiu.local", Subject: "Presença confirmada", HTML: "<p>ok</p>"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.local:2525", gotAddr)
	assert.Equal(t, "no-reply@jiu.local", gotFrom)
	assert.Equal(t, []string{"aluno@jiu.local"}, gotTo)
	body := string(gotBody)
	assert.Contains(t, body, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, body, "Subject: =?utf-8?q?")
	assert.True(t, strings.HasSuffix(body, "<p>ok</p>"))
}

func TestSMTPMailerErrors(t *testing.T) {
	m := &SMTPMailer{
		cfg:    config.SMTPConfig{Host: "smtp.local", Port: 25, From: "no-reply@jiu.local"},
		logger: zap.NewNop(),
		send: func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("relay down")
		},
	}

	err := m.Send(context.Background(), Message{To: "not an address"})
	assert.ErrorContains(t, err, "parse recipient")

	err = m.Send(context.Background(), Message{To: "a@jiu.local"})
	assert.ErrorContains(t, err, "relay down")
}
