package stripe

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

const testSecret = "whsec_test_secret"

func sign(t *testing.T, secret, payload string) (string, []byte) {
	t.Helper()
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return signed.Header, signed.Payload
}

func TestVerifyCheckoutCompletedPrefersMetadata(t *testing.T) {
	payload := `{"id":"evt_1","object":"event","type":"checkout.session.completed","created":1735689600,` +
		`"data":{"object":{"id":"cs_1","customer":"cus_1","client_reference_id":"ref-user","metadata":{"userId":"meta-user"}}}}`
	header, body := sign(t, testSecret, payload)

	event, err := NewVerifier(testSecret).Verify(body, header)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentEventCheckoutCompleted, event.Kind)
	assert.Equal(t, "meta-user", event.UserID)
	assert.Equal(t, "cus_1", event.CustomerID)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, time.Unix(1735689600, 0).UTC(), event.CreatedAt)
}

func TestVerifyCheckoutCompletedFallsBackToClientReference(t *testing.T) {
	payload := `{"id":"evt_2","object":"event","type":"checkout.session.completed","created":1735689600,` +
		`"data":{"object":{"id":"cs_2","customer":"cus_2","client_reference_id":"ref-user"}}}`
	header, body := sign(t, testSecret, payload)

	event, err := NewVerifier(testSecret).Verify(body, header)
	require.NoError(t, err)
	assert.Equal(t, "ref-user", event.UserID)
}

func TestVerifySubscriptionDeleted(t *testing.T) {
	payload := `{"id":"evt_3","object":"event","type":"customer.subscription.deleted","created":1735689600,` +
		`"data":{"object":{"id":"sub_1","customer":"cus_9"}}}`
	header, body := sign(t, testSecret, payload)

	event, err := NewVerifier(testSecret).Verify(body, header)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentEventSubscriptionDeleted, event.Kind)
	assert.Equal(t, "cus_9", event.CustomerID)
	assert.Empty(t, event.UserID)
}

func TestVerifyIgnoresOtherEventTypes(t *testing.T) {
	payload := `{"id":"evt_4","object":"event","type":"invoice.paid","created":1735689600,"data":{"object":{"id":"in_1"}}}`
	header, body := sign(t, testSecret, payload)

	event, err := NewVerifier(testSecret).Verify(body, header)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentEventIgnored, event.Kind)
	assert.Equal(t, "invoice.paid", event.Type)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	payload := `{"id":"evt_5","object":"event","type":"checkout.session.completed","data":{"object":{"customer":"cus_1"}}}`
	header, body := sign(t, "whsec_other", payload)

	_, err := NewVerifier(testSecret).Verify(body, header)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrVerification))
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	payload := `{"id":"evt_6","object":"event","type":"checkout.session.completed","data":{"object":{"customer":"cus_1","client_reference_id":"u1"}}}`
	header, _ := sign(t, testSecret, payload)
	tampered := []byte(`{"id":"evt_6","object":"event","type":"checkout.session.completed","data":{"object":{"customer":"cus_1","client_reference_id":"attacker"}}}`)

	_, err := NewVerifier(testSecret).Verify(tampered, header)
	assert.True(t, errors.Is(err, apperr.ErrVerification))
}

func TestVerifyRejectsMissingHeader(t *testing.T) {
	_, err := NewVerifier(testSecret).Verify([]byte(`{}`), "")
	assert.True(t, errors.Is(err, apperr.ErrVerification))
}
