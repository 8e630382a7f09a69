package utils

import (
	"fmt"
	"log"
	"os"
)

func NewLog(dir, name string) *log.Logger {
	if err := os.MkdirAll(dir, 0755); err != nil {
		panic(err)
	}
	fileName := fmt.Sprintf("%s%s.log", dir, name)
	file, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		panic(err)
	}
	return log.New(file, "", log.LstdFlags|log.Lmicroseconds)
}
