package paths

import (
	"os"
	"path/filepath"
)

// DataEnv names the environment variable holding extra directories, in
// filepath.SplitList form, to look for data files in.
const DataEnv = "PIXELRENDER_DATA"

func getPossiblePathDirsFS() []string {
	var dirs []string
	if env := os.Getenv(DataEnv); env != "" {
		dirs = append(dirs, filepath.SplitList(env)...)
	}
	dirs = append(dirs, ".", "datafiles")
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs,
			filepath.Join(filepath.Dir(exe), "datafiles"),
			filepath.Join(exe+".runfiles", "pixelrender", "datafiles"))
	}
	return dirs
}

func getPossiblePathsFS(fileName string) []string {
	if filepath.IsAbs(fileName) {
		return []string{fileName}
	}
	dirs := getPossiblePathDirsFS()
	paths := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		paths = append(paths, filepath.Join(dir, fileName))
	}
	return paths
}
