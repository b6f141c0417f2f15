package main

import "github.com/vibast-solutions/ms-go-meal-subscriptions/cmd"

func main() {
	cmd.Execute()
}
