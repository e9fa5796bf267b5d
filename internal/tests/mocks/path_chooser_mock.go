package mocks

import "context"

type PathChooserMock struct {
	ChooseSavePathFunc func(ctx context.Context, defaultName string) (string, error)
}

func (m *PathChooserMock) ChooseSavePath(ctx context.Context, defaultName string) (string, error) {
	if m.ChooseSavePathFunc != nil {
		return m.ChooseSavePathFunc(ctx, defaultName)
	}
	return "", nil
}
