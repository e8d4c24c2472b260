package fake

import "github.com/mj1618/desktop-intent/internal/platform"

// Handles of the demo windows.
const (
	EditorHandle   uintptr = 0x1001
	SettingsHandle uintptr = 0x1002
)

func init() {
	platform.Register("fake", func() (*platform.Provider, error) {
		return Demo().Provider(), nil
	})
}

// Demo returns a desktop with a text editor and a settings dialog, enough to
// exercise every command from the CLI without a real window system.
func Demo() *Desktop {
	d := NewDesktop()

	editor := Container("Window", "", R(100, 100, 800, 600),
		Container("MenuBar", "Application", R(100, 130, 800, 20),
			MenuItem("File", R(100, 130, 40, 20),
				MenuItem("New", R(100, 150, 120, 20)),
				MenuItem("Save", R(100, 170, 120, 20)),
				MenuItem("Exit", R(100, 190, 120, 20)),
			),
			MenuItem("Edit", R(140, 130, 40, 20)),
		),
		Container("ToolBar", "Standard", R(100, 150, 800, 30),
			Button("Save", "saveButton", R(100, 150, 60, 30)),
			Button("Open", "openButton", R(160, 150, 60, 30)),
		),
		Edit("Text Editor", "editor", R(100, 180, 800, 480)),
		Container("StatusBar", "", R(100, 660, 800, 40),
			Label("Ln 1, Col 1", R(100, 660, 200, 40)),
		),
	)
	d.AddWindow(EditorHandle, "Untitled - Editor", "editor.exe", editor)

	settings := Container("Window", "", R(1000, 100, 500, 700),
		CheckBox("Word wrap", R(1020, 130, 200, 24), false),
		CheckBox("Show status bar", R(1020, 160, 200, 24), true),
		Label("Font", R(1020, 200, 80, 24)),
		Edit("Font", "fontName", R(1110, 200, 200, 24)),
		VirtualList("Themes", R(1020, 240, 460, 400), 20, NumberedItems("Theme", 300)...),
		Button("Save", "settingsSave", R(1300, 750, 80, 30)),
		Button("Cancel", "settingsCancel", R(1390, 750, 80, 30)),
		Document("Help", "Settings apply to new windows.", R(1020, 650, 460, 90)),
	)
	d.AddWindow(SettingsHandle, "Settings", "editor.exe", settings)
	return d
}
