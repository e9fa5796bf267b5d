package mocks

type SecretStoreMock struct {
	GetApiKeyFunc func(platform string) (string, error)
}

func (m *SecretStoreMock) GetApiKey(platform string) (string, error) {
	if m.GetApiKeyFunc != nil {
		return m.GetApiKeyFunc(platform)
	}
	return "", nil
}
